package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/domain"
	"github.com/flowforge/auth-service/internal/infrastructure/store"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewSessionManager(store.NewMemory(0), time.Hour, zap.NewNop())

	session, err := m.Create(ctx, "user-1", "client-1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, "client-1", session.ClientID)
	assert.Contains(t, session.AMR, "pwd")

	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	m.Delete(ctx, session.ID)
	_, err = m.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionGetUnknown(t *testing.T) {
	m := NewSessionManager(store.NewMemory(0), time.Hour, zap.NewNop())

	_, err := m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewSessionManager(store.NewMemory(0), -time.Second, zap.NewNop())

	session, err := m.Create(ctx, "user-1", "client-1")
	require.NoError(t, err)

	_, err = m.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionTouch(t *testing.T) {
	ctx := context.Background()
	m := NewSessionManager(store.NewMemory(0), time.Hour, zap.NewNop())

	session, err := m.Create(ctx, "user-1", "client-1")
	require.NoError(t, err)
	before := session.LastActivity

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, m.Touch(ctx, session.ID))

	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.LastActivity.After(before))
}

func TestSessionSweep(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory(0)

	expired := NewSessionManager(s, -time.Second, zap.NewNop())
	live := NewSessionManager(s, time.Hour, zap.NewNop())

	_, err := expired.Create(ctx, "user-1", "client-1")
	require.NoError(t, err)
	kept, err := live.Create(ctx, "user-2", "client-1")
	require.NoError(t, err)

	assert.Equal(t, 1, live.Sweep(ctx))
	_, err = live.Get(ctx, kept.ID)
	assert.NoError(t, err)
}
