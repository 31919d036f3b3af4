package application

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/domain"
	"github.com/flowforge/auth-service/internal/infrastructure/store"
)

const sessionKeyPrefix = "session:"

// SessionManager creates, updates and deletes authentication sessions.
type SessionManager struct {
	store    store.Store
	lifetime time.Duration
	logger   *zap.Logger
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(s store.Store, lifetime time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		store:    s,
		lifetime: lifetime,
		logger:   logger,
	}
}

// Create starts a session for the user/client pair.
func (m *SessionManager) Create(ctx context.Context, userID, clientID string) (*domain.OAuth2Session, error) {
	now := time.Now()
	session := &domain.OAuth2Session{
		ID:           ulid.Make().String(),
		UserID:       userID,
		ClientID:     clientID,
		AuthTime:     now,
		LastActivity: now,
		ExpiresAt:    now.Add(m.lifetime),
		AMR:          []string{"pwd"},
	}

	m.store.Set(sessionKeyPrefix+session.ID, session, m.lifetime)

	m.logger.Debug("Session created",
		zap.String("session_id", session.ID),
		zap.String("user_id", userID),
		zap.String("client_id", clientID))

	return session, nil
}

// Get returns the session or domain.ErrSessionNotFound once absent or expired.
func (m *SessionManager) Get(ctx context.Context, id string) (*domain.OAuth2Session, error) {
	v, ok := m.store.Get(sessionKeyPrefix + id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	session := v.(*domain.OAuth2Session)
	if session.Expired() {
		m.store.Delete(sessionKeyPrefix + id)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Touch updates the session's last-activity timestamp.
func (m *SessionManager) Touch(ctx context.Context, id string) error {
	session, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	session.LastActivity = time.Now()
	m.store.Set(sessionKeyPrefix+session.ID, session, time.Until(session.ExpiresAt))
	return nil
}

// Delete removes the session. Deleting an absent session is a no-op.
func (m *SessionManager) Delete(ctx context.Context, id string) {
	m.store.Delete(sessionKeyPrefix + id)
}

// Sweep deletes expired sessions and returns how many were removed.
func (m *SessionManager) Sweep(ctx context.Context) int {
	removed := 0
	for _, key := range m.store.Keys(sessionKeyPrefix) {
		v, ok := m.store.Get(key)
		if !ok {
			continue
		}
		if session, ok := v.(*domain.OAuth2Session); ok && session.Expired() {
			m.store.Delete(key)
			removed++
		}
	}
	return removed
}
