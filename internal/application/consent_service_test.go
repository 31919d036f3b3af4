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

func TestConsentGrantAndCheck(t *testing.T) {
	ctx := context.Background()
	m := NewConsentManager(store.NewMemory(0), zap.NewNop())

	_, err := m.Grant(ctx, "user-1", "client-1", []string{"openid", "profile"}, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		scopes []string
		want   bool
	}{
		{"exact scopes", []string{"openid", "profile"}, true},
		{"subset", []string{"openid"}, true},
		{"empty request", nil, true},
		{"superset", []string{"openid", "profile", "email"}, false},
		{"disjoint", []string{"email"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Check(ctx, "user-1", "client-1", tt.scopes))
		})
	}

	assert.False(t, m.Check(ctx, "user-2", "client-1", []string{"openid"}))
	assert.False(t, m.Check(ctx, "user-1", "client-2", []string{"openid"}))
}

func TestConsentRevoke(t *testing.T) {
	ctx := context.Background()
	m := NewConsentManager(store.NewMemory(0), zap.NewNop())

	_, err := m.Grant(ctx, "user-1", "client-1", []string{"openid"}, nil)
	require.NoError(t, err)
	require.True(t, m.Check(ctx, "user-1", "client-1", []string{"openid"}))

	m.Revoke(ctx, "user-1", "client-1")
	assert.False(t, m.Check(ctx, "user-1", "client-1", []string{"openid"}))

	// Revoking absent consent is a no-op.
	m.Revoke(ctx, "user-9", "client-9")
}

func TestConsentExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewConsentManager(store.NewMemory(0), zap.NewNop())

	past := time.Now().Add(-time.Minute)
	_, err := m.Grant(ctx, "user-1", "client-1", []string{"openid"}, &past)
	require.NoError(t, err)

	assert.False(t, m.Check(ctx, "user-1", "client-1", []string{"openid"}))
}

func TestConsentGetUnknown(t *testing.T) {
	m := NewConsentManager(store.NewMemory(0), zap.NewNop())

	_, err := m.Get(context.Background(), "user-1", "client-1")
	assert.ErrorIs(t, err, domain.ErrConsentNotFound)
}

func TestConsentReplacesPriorGrant(t *testing.T) {
	ctx := context.Background()
	m := NewConsentManager(store.NewMemory(0), zap.NewNop())

	_, err := m.Grant(ctx, "user-1", "client-1", []string{"openid", "profile"}, nil)
	require.NoError(t, err)
	_, err = m.Grant(ctx, "user-1", "client-1", []string{"openid"}, nil)
	require.NoError(t, err)

	assert.False(t, m.Check(ctx, "user-1", "client-1", []string{"profile"}))
	assert.True(t, m.Check(ctx, "user-1", "client-1", []string{"openid"}))
}
