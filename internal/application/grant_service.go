package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/domain"
)

// GrantHandlers implements the token endpoint: one handler per supported
// grant type, all sharing client authentication and token minting.
type GrantHandlers struct {
	registry *ProviderRegistry
	tokens   *TokenManager
	verifier domain.CredentialVerifier
	events   domain.EventPublisher
	logger   *zap.Logger
}

// NewGrantHandlers wires the grant handlers. The credential verifier may be
// nil, in which case the password grant always fails authentication.
func NewGrantHandlers(registry *ProviderRegistry, tokens *TokenManager, verifier domain.CredentialVerifier, events domain.EventPublisher, logger *zap.Logger) *GrantHandlers {
	return &GrantHandlers{
		registry: registry,
		tokens:   tokens,
		verifier: verifier,
		events:   events,
		logger:   logger,
	}
}

// SupportedGrantTypes lists every grant type a handler exists for. The
// discovery document advertises exactly this list.
func SupportedGrantTypes() []string {
	return []string{
		domain.GrantAuthorizationCode,
		domain.GrantRefreshToken,
		domain.GrantClientCredentials,
		domain.GrantPassword,
		domain.GrantDeviceCode,
	}
}

type grantHandler func(ctx context.Context, client *domain.OAuth2Client, req domain.TokenRequest) (*domain.TokenSet, error)

func (g *GrantHandlers) handlerFor(grantType string) (grantHandler, bool) {
	switch grantType {
	case domain.GrantAuthorizationCode:
		return g.HandleAuthorizationCode, true
	case domain.GrantRefreshToken:
		return g.HandleRefreshToken, true
	case domain.GrantClientCredentials:
		return g.HandleClientCredentials, true
	case domain.GrantPassword:
		return g.HandlePassword, true
	case domain.GrantDeviceCode, "device_code":
		return g.HandleDeviceCode, true
	}
	return nil, false
}

// Handle authenticates the client and dispatches to the grant handler.
func (g *GrantHandlers) Handle(ctx context.Context, req domain.TokenRequest) (*domain.TokenSet, error) {
	handler, ok := g.handlerFor(req.GrantType)
	if !ok {
		return nil, domain.ErrUnsupportedGrantType
	}

	client, err := g.registry.ValidateClient(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}

	grantType := req.GrantType
	if grantType == "device_code" {
		grantType = domain.GrantDeviceCode
	}
	if !client.AllowsGrantType(grantType) {
		return nil, domain.ErrGrantNotAllowed
	}

	return handler(ctx, client, req)
}

// HandleAuthorizationCode redeems a single-use authorization code for a
// token set. The code is consumed before any further validation, so a
// request that fails PKCE or redirect checks still burns the code.
func (g *GrantHandlers) HandleAuthorizationCode(ctx context.Context, client *domain.OAuth2Client, req domain.TokenRequest) (*domain.TokenSet, error) {
	if req.Code == "" {
		return nil, domain.ErrMissingCode
	}

	code, err := g.registry.ConsumeAuthorizationCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	if code.ClientID != client.ID {
		g.logger.Warn("Authorization code redeemed by wrong client",
			zap.String("expected", code.ClientID),
			zap.String("got", client.ID))
		return nil, domain.ErrInvalidAuthorizationCode
	}

	if code.CodeChallenge != "" {
		if req.CodeVerifier == "" {
			return nil, domain.ErrMissingCodeVerifier
		}
		if !g.tokens.ValidateCodeChallenge(req.CodeVerifier, code.CodeChallenge, code.CodeChallengeMethod) {
			return nil, domain.ErrInvalidCodeVerifier
		}
	}

	if code.RedirectURI != "" && code.RedirectURI != req.RedirectURI {
		return nil, domain.ErrInvalidRedirectURI
	}

	return g.tokens.GenerateTokenSet(ctx, client, code.UserID, code.Scopes, code.Nonce, code.SessionID, "")
}

// HandleRefreshToken rotates a refresh token: the presented token is
// consumed and the replacement stays in the same family. Scopes may be
// narrowed but never widened.
func (g *GrantHandlers) HandleRefreshToken(ctx context.Context, client *domain.OAuth2Client, req domain.TokenRequest) (*domain.TokenSet, error) {
	if req.RefreshToken == "" {
		return nil, domain.ErrMissingRefreshToken
	}

	refresh, err := g.tokens.ConsumeRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if refresh.ClientID != client.ID {
		g.tokens.RevokeFamily(refresh.FamilyID)
		return nil, domain.ErrInvalidRefreshToken
	}

	scopes := refresh.Scopes
	if req.Scope != "" {
		requested := splitScope(req.Scope)
		for _, name := range requested {
			if !hasScope(refresh.Scopes, name) {
				return nil, domain.ErrInvalidScope
			}
		}
		scopes = requested
	}

	set, err := g.tokens.GenerateTokenSet(ctx, client, refresh.UserID, scopes, "", "", refresh.FamilyID)
	if err != nil {
		return nil, err
	}

	g.events.Publish(NewEvent(domain.EventTokenRefreshed, map[string]interface{}{
		"client_id": client.ID,
		"family_id": refresh.FamilyID,
	}))
	return set, nil
}

// HandleClientCredentials issues a machine-to-machine access token. There is
// no user, so the response never carries a refresh or ID token.
func (g *GrantHandlers) HandleClientCredentials(ctx context.Context, client *domain.OAuth2Client, req domain.TokenRequest) (*domain.TokenSet, error) {
	scopes, err := g.resolveScopes(client, req.Scope)
	if err != nil {
		return nil, err
	}
	return g.tokens.GenerateTokenSet(ctx, client, "", scopes, "", "", "")
}

// HandlePassword exchanges resource-owner credentials for a token set.
func (g *GrantHandlers) HandlePassword(ctx context.Context, client *domain.OAuth2Client, req domain.TokenRequest) (*domain.TokenSet, error) {
	if req.Username == "" || req.Password == "" {
		return nil, domain.ErrMissingCredentials
	}
	if g.verifier == nil {
		return nil, domain.ErrInvalidCredentials
	}

	userID, err := g.verifier.Verify(ctx, req.Username, req.Password)
	if err != nil {
		g.logger.Debug("Password grant authentication failed", zap.String("client_id", client.ID))
		return nil, domain.ErrInvalidCredentials
	}

	scopes, err := g.resolveScopes(client, req.Scope)
	if err != nil {
		return nil, err
	}
	return g.tokens.GenerateTokenSet(ctx, client, userID, scopes, "", "", "")
}

// HandleDeviceCode polls a pending device authorization. Pending, throttled
// and expired outcomes surface as their RFC 8628 error codes; an authorized
// code is consumed and exchanged exactly once.
func (g *GrantHandlers) HandleDeviceCode(ctx context.Context, client *domain.OAuth2Client, req domain.TokenRequest) (*domain.TokenSet, error) {
	if req.DeviceCode == "" {
		return nil, domain.ErrMissingDeviceCode
	}

	code, err := g.registry.PollDeviceCode(ctx, client.ID, req.DeviceCode)
	if err != nil {
		return nil, err
	}

	return g.tokens.GenerateTokenSet(ctx, client, code.UserID, code.Scopes, "", "", "")
}

// resolveScopes intersects a requested scope string with the client's
// allowed scopes. An empty request means the client's full scope set.
func (g *GrantHandlers) resolveScopes(client *domain.OAuth2Client, scope string) ([]string, error) {
	if scope == "" {
		return client.Scopes, nil
	}
	requested := splitScope(scope)
	granted := make([]string, 0, len(requested))
	for _, name := range requested {
		if hasScope(client.Scopes, name) {
			granted = append(granted, name)
		}
	}
	if len(granted) == 0 {
		return nil, domain.ErrInvalidScope
	}
	return granted, nil
}
