package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/domain"
	"github.com/flowforge/auth-service/internal/infrastructure/store"
)

const consentKeyPrefix = "consent:"

// ConsentManager grants, checks and revokes user consent per client and
// scope set.
type ConsentManager struct {
	store  store.Store
	logger *zap.Logger
}

// NewConsentManager creates a new ConsentManager.
func NewConsentManager(s store.Store, logger *zap.Logger) *ConsentManager {
	return &ConsentManager{store: s, logger: logger}
}

func consentKey(userID, clientID string) string {
	return consentKeyPrefix + userID + ":" + clientID
}

// Grant records consent for the user/client pair, replacing any prior grant.
func (m *ConsentManager) Grant(ctx context.Context, userID, clientID string, scopes []string, expiresAt *time.Time) (*domain.UserConsent, error) {
	consent := &domain.UserConsent{
		UserID:    userID,
		ClientID:  clientID,
		Scopes:    append([]string(nil), scopes...),
		GrantedAt: time.Now(),
		ExpiresAt: expiresAt,
	}

	var ttl time.Duration
	if expiresAt != nil {
		ttl = time.Until(*expiresAt)
	}
	m.store.Set(consentKey(userID, clientID), consent, ttl)

	m.logger.Debug("Consent granted",
		zap.String("user_id", userID),
		zap.String("client_id", clientID),
		zap.Strings("scopes", scopes))

	return consent, nil
}

// Get returns the stored consent or domain.ErrConsentNotFound.
func (m *ConsentManager) Get(ctx context.Context, userID, clientID string) (*domain.UserConsent, error) {
	v, ok := m.store.Get(consentKey(userID, clientID))
	if !ok {
		return nil, domain.ErrConsentNotFound
	}
	return v.(*domain.UserConsent), nil
}

// Check reports whether a valid consent covers every requested scope.
func (m *ConsentManager) Check(ctx context.Context, userID, clientID string, scopes []string) bool {
	consent, err := m.Get(ctx, userID, clientID)
	if err != nil {
		return false
	}
	return consent.Covers(scopes)
}

// Revoke marks the consent revoked. Revoking absent consent is a no-op.
func (m *ConsentManager) Revoke(ctx context.Context, userID, clientID string) {
	consent, err := m.Get(ctx, userID, clientID)
	if err != nil {
		return
	}
	now := time.Now()
	consent.RevokedAt = &now
	m.store.Set(consentKey(userID, clientID), consent, 0)

	m.logger.Debug("Consent revoked",
		zap.String("user_id", userID),
		zap.String("client_id", clientID))
}
