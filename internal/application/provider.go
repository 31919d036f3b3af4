package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/domain"
	"github.com/flowforge/auth-service/internal/infrastructure/config"
	jwtsigner "github.com/flowforge/auth-service/internal/infrastructure/jwt"
	"github.com/flowforge/auth-service/internal/infrastructure/pkce"
	"github.com/flowforge/auth-service/internal/infrastructure/store"
)

// Provider is the facade over the whole authorization server. Transports
// talk to it exclusively; it owns construction and lifecycle of every
// component and republishes their domain events to subscribers.
type Provider struct {
	cfg      *config.Config
	bus      *EventBus
	signer   *jwtsigner.Signer
	registry *ProviderRegistry
	tokens   *TokenManager
	grants   *GrantHandlers
	flow     *AuthorizationFlow
	logger   *zap.Logger
}

// NewProvider builds a fully wired provider. The credential verifier backs
// the password grant and may be nil when that grant is not used.
func NewProvider(cfg *config.Config, verifier domain.CredentialVerifier, logger *zap.Logger) (*Provider, error) {
	signer, err := jwtsigner.NewSigner(cfg.RSAKeySize, logger)
	if err != nil {
		return nil, err
	}

	bus := NewEventBus(logger)
	shared := store.NewMemory(0)

	sessions := NewSessionManager(shared, cfg.SessionDuration, logger)
	consents := NewConsentManager(shared, logger)
	registry := NewProviderRegistry(cfg, signer, shared, bus, logger)
	tokens := NewTokenManager(cfg, shared, signer, sessions, consents, pkce.NewValidator(logger), bus, logger)
	grants := NewGrantHandlers(registry, tokens, verifier, bus, logger)
	flow := NewAuthorizationFlow(registry, tokens, grants, bus, logger)

	p := &Provider{
		cfg:      cfg,
		bus:      bus,
		signer:   signer,
		registry: registry,
		tokens:   tokens,
		grants:   grants,
		flow:     flow,
		logger:   logger,
	}

	// Keep the registry's aggregate counters in sync with what the
	// components publish.
	bus.Subscribe(func(event domain.Event) {
		registry.UpdateMetrics(func(m *domain.Metrics) {
			switch event.Name {
			case domain.EventTokensIssued:
				m.TokensIssued++
			case domain.EventTokenRevoked:
				m.TokensRevoked++
			case domain.EventTokenIntrospected:
				m.Introspections++
			case domain.EventSessionCreated:
				m.SessionsCreated++
			case domain.EventCleanupCompleted:
				m.CleanupRuns++
			}
		})
	})

	return p, nil
}

// Subscribe registers a handler for every domain event the provider emits.
func (p *Provider) Subscribe(handler func(domain.Event)) {
	p.bus.Subscribe(handler)
}

// Registry exposes client and scope administration.
func (p *Provider) Registry() *ProviderRegistry { return p.registry }

// Tokens exposes token-level operations.
func (p *Provider) Tokens() *TokenManager { return p.tokens }

// Authorize runs the front-channel authorize flow.
func (p *Provider) Authorize(ctx context.Context, req domain.AuthorizeRequest, userID string) (*domain.AuthorizeResult, error) {
	return p.flow.Authorize(ctx, req, userID)
}

// Approve completes an authorize flow after the user granted consent.
func (p *Provider) Approve(ctx context.Context, req domain.AuthorizeRequest, userID string, scopes []string) (*domain.AuthorizeResult, error) {
	return p.flow.Approve(ctx, req, userID, scopes)
}

// Token serves the token endpoint for every supported grant.
func (p *Provider) Token(ctx context.Context, req domain.TokenRequest) (*domain.TokenSet, error) {
	return p.flow.Token(ctx, req)
}

// Introspect reports token state per RFC 7662.
func (p *Provider) Introspect(ctx context.Context, token, hint string) *domain.Introspection {
	return p.tokens.Introspect(ctx, token, hint)
}

// Revoke drops a token per RFC 7009. It never fails.
func (p *Provider) Revoke(ctx context.Context, revocation domain.Revocation) {
	p.tokens.Revoke(ctx, revocation)
}

// DeviceAuthorization starts the device flow.
func (p *Provider) DeviceAuthorization(ctx context.Context, clientID, scope string) (*domain.DeviceAuthorization, error) {
	return p.flow.DeviceAuthorization(ctx, clientID, scope)
}

// AuthorizeDevice records the user's approval of a device flow.
func (p *Provider) AuthorizeDevice(ctx context.Context, userCode, userID string) error {
	return p.registry.AuthorizeDeviceCode(ctx, userCode, userID)
}

// DiscoveryDocument returns the provider metadata.
func (p *Provider) DiscoveryDocument(ctx context.Context) *domain.DiscoveryDocument {
	return p.flow.DiscoveryDocument(ctx)
}

// JWKS returns the signing key set.
func (p *Provider) JWKS(ctx context.Context) (map[string]interface{}, error) {
	return p.registry.JWKS(ctx)
}

// Metrics returns the aggregate counters.
func (p *Provider) Metrics() domain.Metrics {
	return p.registry.Metrics()
}

// StartCleanup runs the periodic expiry sweep until Close.
func (p *Provider) StartCleanup(ctx context.Context) {
	p.tokens.StartCleanup(ctx)
}

// Close stops background work.
func (p *Provider) Close() {
	p.tokens.Stop()
}
