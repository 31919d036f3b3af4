package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/domain"
	"github.com/flowforge/auth-service/internal/infrastructure/config"
	jwtsigner "github.com/flowforge/auth-service/internal/infrastructure/jwt"
	"github.com/flowforge/auth-service/internal/infrastructure/pkce"
	"github.com/flowforge/auth-service/internal/infrastructure/store"
	tokens "github.com/flowforge/auth-service/internal/infrastructure/token"
)

const (
	accessKeyPrefix  = "access:"
	refreshKeyPrefix = "refresh:"
)

// TokenManager mints, stores, rotates and revokes all token kinds. Access and
// refresh tokens are opaque handles into the store; ID tokens are signed JWTs
// and are never stored.
type TokenManager struct {
	cfg      *config.Config
	store    store.Store
	signer   *jwtsigner.Signer
	sessions *SessionManager
	consents *ConsentManager
	pkce     *pkce.Validator
	events   domain.EventPublisher
	logger   *zap.Logger

	// refreshMu guards rotation: the read-expiry-delete of a refresh token
	// and the revoked-family bookkeeping must be one critical section.
	refreshMu       sync.Mutex
	revokedFamilies map[string]time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewTokenManager wires the token manager over the shared store.
func NewTokenManager(cfg *config.Config, s store.Store, signer *jwtsigner.Signer, sessions *SessionManager, consents *ConsentManager, validator *pkce.Validator, events domain.EventPublisher, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		cfg:             cfg,
		store:           s,
		signer:          signer,
		sessions:        sessions,
		consents:        consents,
		pkce:            validator,
		events:          events,
		logger:          logger,
		revokedFamilies: make(map[string]time.Time),
		stopCleanup:     make(chan struct{}),
	}
}

// Sessions exposes the session manager for the authorization flow.
func (m *TokenManager) Sessions() *SessionManager { return m.sessions }

// Consents exposes the consent manager for the authorization flow.
func (m *TokenManager) Consents() *ConsentManager { return m.consents }

// ValidateCodeChallenge reports whether the verifier satisfies the challenge.
func (m *TokenManager) ValidateCodeChallenge(verifier, challenge, method string) bool {
	return m.pkce.Validate(verifier, challenge, method)
}

func (m *TokenManager) accessLifetime(client *domain.OAuth2Client) time.Duration {
	if client != nil && client.AccessLifetime > 0 {
		return client.AccessLifetime
	}
	return m.cfg.AccessTokenDuration
}

func (m *TokenManager) refreshLifetime(client *domain.OAuth2Client) time.Duration {
	if client != nil && client.RefreshLifetime > 0 {
		return client.RefreshLifetime
	}
	return m.cfg.RefreshTokenDuration
}

// GenerateAccessToken mints and stores an opaque access token.
func (m *TokenManager) GenerateAccessToken(ctx context.Context, client *domain.OAuth2Client, userID string, scopes []string, sessionID string) (*domain.AccessToken, error) {
	value, err := tokens.GenerateOpaque(tokens.OpaqueTokenBytes)
	if err != nil {
		m.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, domain.ErrInternal
	}

	subject := userID
	if subject == "" {
		subject = client.ID
	}

	now := time.Now()
	token := &domain.AccessToken{
		Token:           value,
		TokenType:       domain.TokenTypeBearer,
		ClientID:        client.ID,
		UserID:          userID,
		Scopes:          scopes,
		CreatedAt:       now,
		ExpiresAt:       now.Add(m.accessLifetime(client)),
		JTI:             uuid.NewString(),
		Issuer:          m.cfg.Issuer,
		Subject:         subject,
		Audience:        client.ID,
		AuthorizedParty: client.ID,
		SessionID:       sessionID,
	}

	m.store.Set(accessKeyPrefix+value, token, time.Until(token.ExpiresAt))
	return token, nil
}

// GenerateRefreshToken mints and stores an opaque refresh token. A fresh
// family ID is assigned when none is supplied; rotations of the same grant
// pass the family through so reuse detection can cascade.
func (m *TokenManager) GenerateRefreshToken(ctx context.Context, client *domain.OAuth2Client, userID string, scopes []string, familyID string) (*domain.RefreshToken, error) {
	value, err := tokens.GenerateOpaque(tokens.OpaqueTokenBytes)
	if err != nil {
		m.logger.Error("Failed to generate refresh token", zap.Error(err))
		return nil, domain.ErrInternal
	}
	if familyID == "" {
		familyID = ulid.Make().String()
	}

	now := time.Now()
	token := &domain.RefreshToken{
		Token:     value,
		ClientID:  client.ID,
		UserID:    userID,
		Scopes:    scopes,
		FamilyID:  familyID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.refreshLifetime(client)),
	}

	m.store.Set(refreshKeyPrefix+value, token, time.Until(token.ExpiresAt))
	return token, nil
}

// GenerateIDToken signs an OpenID Connect ID token for the user.
func (m *TokenManager) GenerateIDToken(ctx context.Context, client *domain.OAuth2Client, userID, nonce, sessionID string, authTime time.Time) (string, error) {
	now := time.Now()
	claims := &domain.IDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{client.ID},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.IDTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Nonce: nonce,
		AZP:   client.ID,
	}
	if !authTime.IsZero() {
		claims.AuthTime = authTime.Unix()
	}
	if sessionID != "" {
		if session, err := m.sessions.Get(ctx, sessionID); err == nil {
			claims.ACR = session.ACR
			claims.AMR = session.AMR
		}
	}
	return m.signer.Sign(claims)
}

// GenerateTokenSet mints the full response for a grant: always an access
// token, a refresh token when the grant is user-bound and the client may
// refresh, and an ID token when the openid scope was granted to a user.
func (m *TokenManager) GenerateTokenSet(ctx context.Context, client *domain.OAuth2Client, userID string, scopes []string, nonce, sessionID, familyID string) (*domain.TokenSet, error) {
	access, err := m.GenerateAccessToken(ctx, client, userID, scopes, sessionID)
	if err != nil {
		return nil, err
	}

	set := &domain.TokenSet{
		AccessToken: access.Token,
		TokenType:   domain.TokenTypeBearer,
		ExpiresIn:   int64(time.Until(access.ExpiresAt).Seconds()),
		Scope:       strings.Join(scopes, " "),
	}

	if userID != "" && client.AllowsGrantType(domain.GrantRefreshToken) {
		refresh, err := m.GenerateRefreshToken(ctx, client, userID, scopes, familyID)
		if err != nil {
			return nil, err
		}
		set.RefreshToken = refresh.Token
	}

	if userID != "" && hasScope(scopes, "openid") {
		var authTime time.Time
		if sessionID != "" {
			if session, err := m.sessions.Get(ctx, sessionID); err == nil {
				authTime = session.AuthTime
			}
		}
		idToken, err := m.GenerateIDToken(ctx, client, userID, nonce, sessionID, authTime)
		if err != nil {
			return nil, err
		}
		set.IDToken = idToken
	}

	m.events.Publish(NewEvent(domain.EventTokensIssued, map[string]interface{}{
		"client_id": client.ID,
		"user_id":   userID,
		"scope":     set.Scope,
	}))
	return set, nil
}

func hasScope(scopes []string, name string) bool {
	for _, s := range scopes {
		if s == name {
			return true
		}
	}
	return false
}

// ConsumeRefreshToken atomically redeems a refresh token for rotation. A
// token from a family that was already rotated or revoked is treated as
// stolen: the whole family is cascaded and the caller sees an invalid token.
func (m *TokenManager) ConsumeRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	v, ok := m.store.Get(refreshKeyPrefix + token)
	if !ok {
		return nil, domain.ErrInvalidRefreshToken
	}
	refresh := v.(*domain.RefreshToken)

	m.store.Delete(refreshKeyPrefix + token)

	if refresh.Expired() {
		return nil, domain.ErrInvalidRefreshToken
	}

	if _, revoked := m.revokedFamilies[refresh.FamilyID]; revoked {
		m.revokeFamilyLocked(refresh.FamilyID)
		m.logger.Warn("Refresh token reuse detected",
			zap.String("client_id", refresh.ClientID),
			zap.String("family_id", refresh.FamilyID))
		m.events.Publish(NewEvent(domain.EventSuspiciousActivity, map[string]interface{}{
			"reason":    "refresh_token_reuse",
			"client_id": refresh.ClientID,
			"family_id": refresh.FamilyID,
		}))
		return nil, domain.ErrInvalidRefreshToken
	}

	return refresh, nil
}

// revokeFamilyLocked deletes every live refresh token in a family and marks
// the family so a replayed sibling is rejected. Callers hold refreshMu.
func (m *TokenManager) revokeFamilyLocked(familyID string) {
	m.revokedFamilies[familyID] = time.Now()
	for _, key := range m.store.Keys(refreshKeyPrefix) {
		v, ok := m.store.Get(key)
		if !ok {
			continue
		}
		if refresh := v.(*domain.RefreshToken); refresh.FamilyID == familyID {
			m.store.Delete(key)
		}
	}
}

// RevokeFamily cascades revocation over a refresh-token family.
func (m *TokenManager) RevokeFamily(familyID string) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	m.revokeFamilyLocked(familyID)
}

// GetAccessToken returns a live access token or domain.ErrInvalidSignature.
func (m *TokenManager) GetAccessToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	v, ok := m.store.Get(accessKeyPrefix + token)
	if !ok {
		return nil, domain.ErrInvalidSignature
	}
	access := v.(*domain.AccessToken)
	if access.Expired() {
		m.store.Delete(accessKeyPrefix + token)
		return nil, domain.ErrInvalidSignature
	}
	return access, nil
}

// Introspect implements RFC 7662 semantics: the result is always well formed
// and unknown, expired or malformed tokens simply come back inactive. The
// hint only orders the lookup, it never excludes the other kind.
func (m *TokenManager) Introspect(ctx context.Context, token, hint string) *domain.Introspection {
	m.events.Publish(NewEvent(domain.EventTokenIntrospected, map[string]interface{}{
		"hint": hint,
	}))

	if token == "" {
		return &domain.Introspection{Active: false}
	}

	lookups := []string{domain.TokenHintAccess, domain.TokenHintRefresh}
	if hint == domain.TokenHintRefresh {
		lookups = []string{domain.TokenHintRefresh, domain.TokenHintAccess}
	}

	for _, kind := range lookups {
		switch kind {
		case domain.TokenHintAccess:
			if access, err := m.GetAccessToken(ctx, token); err == nil {
				return &domain.Introspection{
					Active:    true,
					Scope:     strings.Join(access.Scopes, " "),
					ClientID:  access.ClientID,
					Sub:       access.Subject,
					TokenType: domain.TokenHintAccess,
					Exp:       access.ExpiresAt.Unix(),
					Iat:       access.CreatedAt.Unix(),
				}
			}
		case domain.TokenHintRefresh:
			if v, ok := m.store.Get(refreshKeyPrefix + token); ok {
				refresh := v.(*domain.RefreshToken)
				if !refresh.Expired() {
					return &domain.Introspection{
						Active:    true,
						Scope:     strings.Join(refresh.Scopes, " "),
						ClientID:  refresh.ClientID,
						Sub:       refresh.UserID,
						TokenType: domain.TokenHintRefresh,
						Exp:       refresh.ExpiresAt.Unix(),
						Iat:       refresh.CreatedAt.Unix(),
					}
				}
			}
		}
	}
	return &domain.Introspection{Active: false}
}

// Revoke implements RFC 7009 semantics: revocation never fails, revoking an
// unknown token is a no-op, and revoking a refresh token takes its whole
// family with it.
func (m *TokenManager) Revoke(ctx context.Context, revocation domain.Revocation) {
	if revocation.Token == "" {
		return
	}

	revoked := false
	if _, ok := m.store.Get(accessKeyPrefix + revocation.Token); ok {
		m.store.Delete(accessKeyPrefix + revocation.Token)
		revoked = true
	}

	m.refreshMu.Lock()
	if v, ok := m.store.Get(refreshKeyPrefix + revocation.Token); ok {
		refresh := v.(*domain.RefreshToken)
		m.revokeFamilyLocked(refresh.FamilyID)
		revoked = true
	}
	m.refreshMu.Unlock()

	if revoked {
		m.events.Publish(NewEvent(domain.EventTokenRevoked, map[string]interface{}{
			"token_type_hint": revocation.TokenTypeHint,
		}))
	}
}

// RevokeClientTokens drops every live token issued to a client, typically on
// client deletion or credential compromise.
func (m *TokenManager) RevokeClientTokens(ctx context.Context, clientID string) int {
	revoked := 0
	for _, key := range m.store.Keys(accessKeyPrefix) {
		if v, ok := m.store.Get(key); ok {
			if v.(*domain.AccessToken).ClientID == clientID {
				m.store.Delete(key)
				revoked++
			}
		}
	}

	m.refreshMu.Lock()
	for _, key := range m.store.Keys(refreshKeyPrefix) {
		if v, ok := m.store.Get(key); ok {
			refresh := v.(*domain.RefreshToken)
			if refresh.ClientID == clientID {
				m.revokedFamilies[refresh.FamilyID] = time.Now()
				m.store.Delete(key)
				revoked++
			}
		}
	}
	m.refreshMu.Unlock()

	if revoked > 0 {
		m.logger.Info("Revoked client tokens",
			zap.String("client_id", clientID),
			zap.Int("count", revoked))
		m.events.Publish(NewEvent(domain.EventTokenRevoked, map[string]interface{}{
			"client_id": clientID,
			"count":     revoked,
		}))
	}
	return revoked
}

// Cleanup sweeps expired sessions and forgets revoked-family markers older
// than the refresh token lifetime, after which a replay cannot occur anyway.
func (m *TokenManager) Cleanup(ctx context.Context) {
	swept := m.sessions.Sweep(ctx)

	m.refreshMu.Lock()
	cutoff := time.Now().Add(-m.cfg.RefreshTokenDuration)
	for family, revokedAt := range m.revokedFamilies {
		if revokedAt.Before(cutoff) {
			delete(m.revokedFamilies, family)
		}
	}
	m.refreshMu.Unlock()

	m.events.Publish(NewEvent(domain.EventCleanupCompleted, map[string]interface{}{
		"sessions_swept": swept,
	}))
}

// StartCleanup runs Cleanup on the configured interval until Stop is called.
func (m *TokenManager) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Cleanup(ctx)
			case <-m.stopCleanup:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the background cleanup loop.
func (m *TokenManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCleanup) })
}
