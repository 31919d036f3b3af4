package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/domain"
	"github.com/flowforge/auth-service/internal/infrastructure/config"
)

// staticVerifier authenticates a fixed username/password pair.
type staticVerifier struct {
	username string
	password string
	userID   string
}

func (v *staticVerifier) Verify(ctx context.Context, username, password string) (string, error) {
	if username == v.username && password == v.password {
		return v.userID, nil
	}
	return "", domain.ErrInvalidCredentials
}

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.RSAKeySize = 1024 // keep key generation fast in tests
	return cfg
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	verifier := &staticVerifier{username: "alice", password: "s3cret", userID: "user-1"}
	provider, err := NewProvider(testConfig(), verifier, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(provider.Close)
	return provider
}

// registerTestClient registers a confidential client with the usual grants
// and returns it with the plaintext secret still attached.
func registerTestClient(t *testing.T, p *Provider, id string, mutate func(*domain.OAuth2Client)) *domain.OAuth2Client {
	t.Helper()
	client := &domain.OAuth2Client{
		ID:           id,
		Name:         "Test Client",
		RedirectURIs: []string{"https://app.example.com/callback"},
		GrantTypes: []string{
			domain.GrantAuthorizationCode,
			domain.GrantRefreshToken,
			domain.GrantClientCredentials,
			domain.GrantPassword,
			domain.GrantDeviceCode,
		},
		ResponseTypes: []string{domain.ResponseTypeCode, domain.ResponseTypeToken, domain.ResponseTypeIDToken},
		Scopes:        []string{"openid", "profile", "workflows:read"},
		Trusted:       true,
	}
	if mutate != nil {
		mutate(client)
	}
	registered, err := p.Registry().RegisterClient(context.Background(), client)
	require.NoError(t, err)
	return registered
}
