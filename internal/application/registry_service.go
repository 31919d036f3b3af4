package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/domain"
	"github.com/flowforge/auth-service/internal/infrastructure/config"
	"github.com/flowforge/auth-service/internal/infrastructure/jwt"
	"github.com/flowforge/auth-service/internal/infrastructure/password"
	"github.com/flowforge/auth-service/internal/infrastructure/store"
	tokens "github.com/flowforge/auth-service/internal/infrastructure/token"
)

const (
	codeKeyPrefix   = "code:"
	deviceKeyPrefix = "device:"
)

// defaultScopes exist before any client registration.
var defaultScopes = []*domain.Scope{
	{Name: "openid", DisplayName: "OpenID", Description: "Authenticate with your identity", Required: true},
	{Name: "profile", DisplayName: "Profile", Description: "Read your profile information", Claims: []string{"name", "preferred_username"}},
	{Name: "email", DisplayName: "Email", Description: "Read your email address", Claims: []string{"email", "email_verified"}},
	{Name: "offline_access", DisplayName: "Offline access", Description: "Keep access while you are away", Consent: true},
	{Name: "workflows:read", DisplayName: "Read workflows", Description: "List and inspect your workflows"},
	{Name: "workflows:run", DisplayName: "Run workflows", Description: "Trigger workflow executions on your behalf", Consent: true},
}

// ProviderRegistry owns client records, the scope catalog, the transient
// authorization-code and device-code stores, security configuration, JWKS
// and aggregate metrics. No other component mutates these entities.
type ProviderRegistry struct {
	cfg    *config.Config
	signer *jwt.Signer
	events domain.EventPublisher
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[string]*domain.OAuth2Client
	scopes  map[string]*domain.Scope

	// codeMu serializes code redemption so one code can never be consumed
	// twice: read, expiry check and delete form a single critical section.
	codeMu sync.Mutex
	codes  store.Store

	deviceMu sync.Mutex
	devices  store.Store

	metricsMu sync.Mutex
	metrics   domain.Metrics
}

// NewProviderRegistry creates a registry with the default scope catalog seeded.
func NewProviderRegistry(cfg *config.Config, signer *jwt.Signer, s store.Store, events domain.EventPublisher, logger *zap.Logger) *ProviderRegistry {
	r := &ProviderRegistry{
		cfg:     cfg,
		signer:  signer,
		events:  events,
		logger:  logger,
		clients: make(map[string]*domain.OAuth2Client),
		scopes:  make(map[string]*domain.Scope),
		codes:   s,
		devices: s,
	}

	for _, scope := range defaultScopes {
		r.scopes[scope.Name] = scope
	}
	r.metrics.ScopesRegistered = int64(len(defaultScopes))

	return r
}

// Issuer returns the issuer identifier used in all minted tokens.
func (r *ProviderRegistry) Issuer() string {
	return r.cfg.Issuer
}

// SecurityConfig returns the security configuration view.
func (r *ProviderRegistry) SecurityConfig() config.SecurityConfig {
	return r.cfg.Security()
}

// JWKS returns the key set for ID-token verification.
func (r *ProviderRegistry) JWKS(ctx context.Context) (map[string]interface{}, error) {
	return r.signer.JWKS(ctx)
}

// Metrics returns a snapshot of the aggregate metrics.
func (r *ProviderRegistry) Metrics() domain.Metrics {
	r.metricsMu.Lock()
	defer r.metricsMu.Unlock()
	return r.metrics
}

// UpdateMetrics applies a mutation to the aggregate metrics under lock.
func (r *ProviderRegistry) UpdateMetrics(mutate func(*domain.Metrics)) {
	r.metricsMu.Lock()
	defer r.metricsMu.Unlock()
	mutate(&r.metrics)
}

// RegisterClient stores a new client. The plaintext secret is present on the
// returned client only; subsequent lookups never reveal it.
func (r *ProviderRegistry) RegisterClient(ctx context.Context, client *domain.OAuth2Client) (*domain.OAuth2Client, error) {
	if client == nil || client.ID == "" {
		return nil, domain.ErrInvalidClientID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[client.ID]; exists {
		return nil, domain.ErrClientExists
	}

	registered := *client
	if registered.AuthMethod == "" {
		registered.AuthMethod = domain.AuthMethodClientSecretBasic
	}
	if len(registered.GrantTypes) == 0 {
		registered.GrantTypes = []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken}
	}
	if len(registered.ResponseTypes) == 0 {
		registered.ResponseTypes = []string{domain.ResponseTypeCode}
	}

	for _, name := range registered.Scopes {
		if _, ok := r.scopes[name]; !ok {
			return nil, domain.ErrInvalidScope
		}
	}
	if len(registered.Scopes) == 0 {
		for _, scope := range defaultScopes {
			registered.Scopes = append(registered.Scopes, scope.Name)
		}
	}

	secret := registered.Secret
	if secret == "" && registered.AuthMethod != domain.AuthMethodNone {
		generated, err := tokens.GenerateOpaque(tokens.OpaqueTokenBytes)
		if err != nil {
			r.logger.Error("Failed to generate client secret", zap.Error(err))
			return nil, domain.ErrInternal
		}
		secret = generated
	}
	if secret != "" {
		hash, err := password.HashSecret(secret)
		if err != nil {
			r.logger.Error("Failed to hash client secret", zap.Error(err))
			return nil, domain.ErrInternal
		}
		registered.SecretHash = hash
	}

	now := time.Now()
	registered.CreatedAt = now
	registered.UpdatedAt = now

	stored := registered
	stored.Secret = ""
	r.clients[stored.ID] = &stored

	r.metricsMu.Lock()
	r.metrics.ClientsRegistered++
	r.metricsMu.Unlock()

	r.logger.Info("OAuth2 client registered", zap.String("client_id", stored.ID))
	r.events.Publish(NewEvent(domain.EventClientRegistered, map[string]interface{}{
		"client_id": stored.ID,
	}))

	registered.Secret = secret
	return &registered, nil
}

// UpdateClient replaces the mutable fields of an existing client. The secret
// hash is preserved unless a new secret is supplied.
func (r *ProviderRegistry) UpdateClient(ctx context.Context, client *domain.OAuth2Client) (*domain.OAuth2Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.clients[client.ID]
	if !ok {
		return nil, domain.ErrClientNotFound
	}

	for _, name := range client.Scopes {
		if _, ok := r.scopes[name]; !ok {
			return nil, domain.ErrInvalidScope
		}
	}

	updated := *client
	updated.Secret = ""
	updated.SecretHash = existing.SecretHash
	if client.Secret != "" {
		hash, err := password.HashSecret(client.Secret)
		if err != nil {
			return nil, domain.ErrInternal
		}
		updated.SecretHash = hash
	}
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	r.clients[updated.ID] = &updated

	r.logger.Info("OAuth2 client updated", zap.String("client_id", updated.ID))
	r.events.Publish(NewEvent(domain.EventClientUpdated, map[string]interface{}{
		"client_id": updated.ID,
	}))

	return &updated, nil
}

// DeleteClient removes a client registration.
func (r *ProviderRegistry) DeleteClient(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; !ok {
		return domain.ErrClientNotFound
	}
	delete(r.clients, id)

	r.logger.Info("OAuth2 client deleted", zap.String("client_id", id))
	r.events.Publish(NewEvent(domain.EventClientDeleted, map[string]interface{}{
		"client_id": id,
	}))
	return nil
}

// GetClient returns the client or domain.ErrClientNotFound.
func (r *ProviderRegistry) GetClient(ctx context.Context, id string) (*domain.OAuth2Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	return client, nil
}

// ListClients returns all clients matching the filter, ordered by ID.
func (r *ProviderRegistry) ListClients(ctx context.Context, filter domain.ClientFilter) []*domain.OAuth2Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*domain.OAuth2Client, 0, len(r.clients))
	for _, client := range r.clients {
		if filter.Matches(client) {
			clients = append(clients, client)
		}
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients
}

// ValidateClient authenticates a client. The secret check is skipped when the
// client's token endpoint auth method is "none".
func (r *ProviderRegistry) ValidateClient(ctx context.Context, id, secret string) (*domain.OAuth2Client, error) {
	r.mu.RLock()
	client, ok := r.clients[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrInvalidClientCredentials
	}

	if client.AuthMethod == domain.AuthMethodNone {
		return client, nil
	}

	if err := password.CheckSecret(secret, client.SecretHash); err != nil {
		r.logger.Debug("Client credential mismatch", zap.String("client_id", id))
		return nil, domain.ErrInvalidClientCredentials
	}
	return client, nil
}

// RegisterScope adds a scope to the catalog.
func (r *ProviderRegistry) RegisterScope(ctx context.Context, scope *domain.Scope) error {
	if scope == nil || scope.Name == "" {
		return domain.ErrInvalidScope
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.scopes[scope.Name] = scope

	r.metricsMu.Lock()
	r.metrics.ScopesRegistered++
	r.metricsMu.Unlock()

	r.logger.Info("Scope registered", zap.String("scope", scope.Name))
	r.events.Publish(NewEvent(domain.EventScopeRegistered, map[string]interface{}{
		"scope": scope.Name,
	}))
	return nil
}

// GetScope returns the scope or domain.ErrScopeNotFound.
func (r *ProviderRegistry) GetScope(ctx context.Context, name string) (*domain.Scope, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scope, ok := r.scopes[name]
	if !ok {
		return nil, domain.ErrScopeNotFound
	}
	return scope, nil
}

// ListScopes returns the scope catalog ordered by name.
func (r *ProviderRegistry) ListScopes(ctx context.Context) []*domain.Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scopes := make([]*domain.Scope, 0, len(r.scopes))
	for _, scope := range r.scopes {
		scopes = append(scopes, scope)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i].Name < scopes[j].Name })
	return scopes
}

// SaveAuthorizationCode stores a single-use authorization code.
func (r *ProviderRegistry) SaveAuthorizationCode(ctx context.Context, code *domain.AuthorizationCode) error {
	r.codeMu.Lock()
	r.codes.Set(codeKeyPrefix+code.Code, code, time.Until(code.ExpiresAt))
	r.codeMu.Unlock()

	r.metricsMu.Lock()
	r.metrics.CodesIssued++
	r.metricsMu.Unlock()
	return nil
}

// GetAuthorizationCode returns the code without consuming it.
func (r *ProviderRegistry) GetAuthorizationCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	r.codeMu.Lock()
	defer r.codeMu.Unlock()

	v, ok := r.codes.Get(codeKeyPrefix + code)
	if !ok {
		return nil, domain.ErrInvalidAuthorizationCode
	}
	return v.(*domain.AuthorizationCode), nil
}

// DeleteAuthorizationCode removes a stored code.
func (r *ProviderRegistry) DeleteAuthorizationCode(ctx context.Context, code string) {
	r.codeMu.Lock()
	defer r.codeMu.Unlock()
	r.codes.Delete(codeKeyPrefix + code)
}

// ConsumeAuthorizationCode atomically reads, expiry-checks and deletes a
// code. Two concurrent redemptions of one code can never both succeed; an
// expired or already-consumed code is indistinguishable from an unknown one.
func (r *ProviderRegistry) ConsumeAuthorizationCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	r.codeMu.Lock()
	defer r.codeMu.Unlock()

	v, ok := r.codes.Get(codeKeyPrefix + code)
	if !ok {
		return nil, domain.ErrInvalidAuthorizationCode
	}
	authCode := v.(*domain.AuthorizationCode)

	r.codes.Delete(codeKeyPrefix + code)

	if authCode.Expired() {
		return nil, domain.ErrInvalidAuthorizationCode
	}
	return authCode, nil
}

// SaveDeviceCode stores a device authorization in progress, indexed by both
// the device code and the user-facing code.
func (r *ProviderRegistry) SaveDeviceCode(ctx context.Context, code *domain.DeviceCode) error {
	r.deviceMu.Lock()
	ttl := time.Until(code.ExpiresAt)
	r.devices.Set(deviceKeyPrefix+code.DeviceCode, code, ttl)
	r.devices.Set(deviceKeyPrefix+"user:"+code.UserCode, code.DeviceCode, ttl)
	r.deviceMu.Unlock()

	r.metricsMu.Lock()
	r.metrics.DeviceCodesIssued++
	r.metricsMu.Unlock()
	return nil
}

// GetDeviceCode returns the device code record without consuming it.
func (r *ProviderRegistry) GetDeviceCode(ctx context.Context, deviceCode string) (*domain.DeviceCode, error) {
	r.deviceMu.Lock()
	defer r.deviceMu.Unlock()
	return r.getDeviceCodeLocked(deviceCode)
}

func (r *ProviderRegistry) getDeviceCodeLocked(deviceCode string) (*domain.DeviceCode, error) {
	v, ok := r.devices.Get(deviceKeyPrefix + deviceCode)
	if !ok {
		return nil, domain.ErrInvalidDeviceCode
	}
	return v.(*domain.DeviceCode), nil
}

// GetDeviceCodeByUserCode resolves a user-facing code so the verification
// page can show the requesting client and scopes before approval.
func (r *ProviderRegistry) GetDeviceCodeByUserCode(ctx context.Context, userCode string) (*domain.DeviceCode, error) {
	r.deviceMu.Lock()
	defer r.deviceMu.Unlock()

	v, ok := r.devices.Get(deviceKeyPrefix + "user:" + userCode)
	if !ok {
		return nil, domain.ErrInvalidDeviceCode
	}
	return r.getDeviceCodeLocked(v.(string))
}

// DeleteDeviceCode removes the device code and its user-code index.
func (r *ProviderRegistry) DeleteDeviceCode(ctx context.Context, deviceCode string) {
	r.deviceMu.Lock()
	defer r.deviceMu.Unlock()

	if code, err := r.getDeviceCodeLocked(deviceCode); err == nil {
		r.devices.Delete(deviceKeyPrefix + "user:" + code.UserCode)
	}
	r.devices.Delete(deviceKeyPrefix + deviceCode)
}

// AuthorizeDeviceCode records the out-of-band approval for the device flow:
// the user entered the user code and approved the request.
func (r *ProviderRegistry) AuthorizeDeviceCode(ctx context.Context, userCode, userID string) error {
	r.deviceMu.Lock()
	defer r.deviceMu.Unlock()

	v, ok := r.devices.Get(deviceKeyPrefix + "user:" + userCode)
	if !ok {
		return domain.ErrInvalidDeviceCode
	}
	code, err := r.getDeviceCodeLocked(v.(string))
	if err != nil {
		return err
	}
	if code.Expired() {
		return domain.ErrExpiredDeviceCode
	}

	now := time.Now()
	code.UserID = userID
	code.AuthorizedAt = &now
	r.devices.Set(deviceKeyPrefix+code.DeviceCode, code, time.Until(code.ExpiresAt))

	r.logger.Info("Device code authorized",
		zap.String("client_id", code.ClientID),
		zap.String("user_id", userID))
	return nil
}

// PollDeviceCode is the token-endpoint side of the device flow. It enforces
// the poll interval, reports pending/expired outcomes, and consumes the code
// exactly once when it has been authorized. A poll by any client other than
// the one that requested the code is rejected without touching the code, so
// the rightful client can still redeem it.
func (r *ProviderRegistry) PollDeviceCode(ctx context.Context, clientID, deviceCode string) (*domain.DeviceCode, error) {
	r.deviceMu.Lock()
	defer r.deviceMu.Unlock()

	code, err := r.getDeviceCodeLocked(deviceCode)
	if err != nil {
		return nil, err
	}

	if code.ClientID != clientID {
		return nil, domain.ErrInvalidDeviceCode
	}

	if code.Expired() {
		r.devices.Delete(deviceKeyPrefix + code.DeviceCode)
		r.devices.Delete(deviceKeyPrefix + "user:" + code.UserCode)
		return nil, domain.ErrExpiredDeviceCode
	}

	now := time.Now()
	if !code.LastPolledAt.IsZero() && now.Sub(code.LastPolledAt) < time.Duration(code.Interval)*time.Second {
		code.LastPolledAt = now
		r.devices.Set(deviceKeyPrefix+code.DeviceCode, code, time.Until(code.ExpiresAt))
		return nil, domain.ErrSlowDown
	}
	code.LastPolledAt = now

	if !code.Authorized() {
		r.devices.Set(deviceKeyPrefix+code.DeviceCode, code, time.Until(code.ExpiresAt))
		return nil, domain.ErrAuthorizationPending
	}

	r.devices.Delete(deviceKeyPrefix + code.DeviceCode)
	r.devices.Delete(deviceKeyPrefix + "user:" + code.UserCode)
	return code, nil
}
