package application

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/auth-service/internal/domain"
)

func TestAuthorizeCodeFlow(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	client := registerTestClient(t, p, "webapp", nil)

	result, err := p.Authorize(ctx, domain.AuthorizeRequest{
		ClientID:     client.ID,
		RedirectURI:  client.RedirectURIs[0],
		ResponseType: domain.ResponseTypeCode,
		Scope:        "openid profile",
		State:        "xyz",
	}, "user-1")
	require.NoError(t, err)
	require.False(t, result.RequireConsent)
	require.NotEmpty(t, result.SessionID)

	redirect, err := url.Parse(result.RedirectURL)
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", redirect.Host)
	assert.Equal(t, "xyz", redirect.Query().Get("state"))

	code := redirect.Query().Get("code")
	require.NotEmpty(t, code)

	// The code redeems at the token endpoint: the full round trip.
	set, err := p.Token(ctx, domain.TokenRequest{
		GrantType:    domain.GrantAuthorizationCode,
		ClientID:     client.ID,
		ClientSecret: client.Secret,
		Code:         code,
		RedirectURI:  client.RedirectURIs[0],
	})
	require.NoError(t, err)
	assert.NotEmpty(t, set.AccessToken)

	// The id_token must verify against our own keys and identify the
	// authenticated user, the issuer and the client audience.
	claims, err := p.signer.Verify(set.IDToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, p.Registry().Issuer(), claims.Issuer)
	assert.Contains(t, claims.Audience, client.ID)
}

func TestApproveClampsScopesToClient(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	client := registerTestClient(t, p, "narrow-app", func(c *domain.OAuth2Client) {
		c.Trusted = false
		c.RequireConsent = true
		c.Scopes = []string{"openid"}
	})

	req := domain.AuthorizeRequest{
		ClientID:     client.ID,
		RedirectURI:  client.RedirectURIs[0],
		ResponseType: "code",
		Scope:        "openid",
	}

	// A tampered consent form posts scopes the client was never registered
	// for; only the allowed ones may reach the issued code.
	approved, err := p.Approve(ctx, req, "user-1", []string{"openid", "workflows:run", "totally-made-up"})
	require.NoError(t, err)

	redirect, err := url.Parse(approved.RedirectURL)
	require.NoError(t, err)
	code := redirect.Query().Get("code")
	require.NotEmpty(t, code)

	set, err := p.Token(ctx, domain.TokenRequest{
		GrantType:    domain.GrantAuthorizationCode,
		ClientID:     client.ID,
		ClientSecret: client.Secret,
		Code:         code,
		RedirectURI:  client.RedirectURIs[0],
	})
	require.NoError(t, err)
	assert.Equal(t, "openid", set.Scope)
}

func TestApproveRejectsDisallowedResponseType(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	client := registerTestClient(t, p, "code-only", func(c *domain.OAuth2Client) {
		c.ResponseTypes = []string{domain.ResponseTypeCode}
	})

	_, err := p.Approve(ctx, domain.AuthorizeRequest{
		ClientID:     client.ID,
		RedirectURI:  client.RedirectURIs[0],
		ResponseType: "token",
	}, "user-1", []string{"openid"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedResponseType)
}

func TestAuthorizeRejections(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	client := registerTestClient(t, p, "webapp", func(c *domain.OAuth2Client) {
		c.ResponseTypes = []string{domain.ResponseTypeCode}
	})

	tests := []struct {
		name string
		req  domain.AuthorizeRequest
		want error
	}{
		{
			name: "unknown client",
			req: domain.AuthorizeRequest{
				ClientID:     "ghost",
				RedirectURI:  "https://app.example.com/callback",
				ResponseType: "code",
			},
			want: domain.ErrInvalidClientID,
		},
		{
			name: "unregistered redirect",
			req: domain.AuthorizeRequest{
				ClientID:     client.ID,
				RedirectURI:  "https://evil.example.com/cb",
				ResponseType: "code",
			},
			want: domain.ErrInvalidRedirectURI,
		},
		{
			name: "empty response type",
			req: domain.AuthorizeRequest{
				ClientID:    client.ID,
				RedirectURI: client.RedirectURIs[0],
			},
			want: domain.ErrUnsupportedResponseType,
		},
		{
			name: "unknown response type",
			req: domain.AuthorizeRequest{
				ClientID:     client.ID,
				RedirectURI:  client.RedirectURIs[0],
				ResponseType: "code unicorn",
			},
			want: domain.ErrUnsupportedResponseType,
		},
		{
			name: "response type not allowed for client",
			req: domain.AuthorizeRequest{
				ClientID:     client.ID,
				RedirectURI:  client.RedirectURIs[0],
				ResponseType: "token",
			},
			want: domain.ErrUnsupportedResponseType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Authorize(ctx, tt.req, "user-1")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthorizeImplicitFlow(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	client := registerTestClient(t, p, "spa", nil)

	result, err := p.Authorize(ctx, domain.AuthorizeRequest{
		ClientID:     client.ID,
		RedirectURI:  client.RedirectURIs[0],
		ResponseType: "token id_token",
		Scope:        "openid",
		State:        "abc",
		Nonce:        "n-1",
	}, "user-1")
	require.NoError(t, err)

	redirect, err := url.Parse(result.RedirectURL)
	require.NoError(t, err)
	require.NotEmpty(t, redirect.Fragment)
	assert.Empty(t, redirect.RawQuery)

	fragment, err := url.ParseQuery(redirect.Fragment)
	require.NoError(t, err)
	assert.NotEmpty(t, fragment.Get("access_token"))
	assert.NotEmpty(t, fragment.Get("id_token"))
	assert.Equal(t, "Bearer", fragment.Get("token_type"))
	assert.Equal(t, "abc", fragment.Get("state"))
	assert.Empty(t, fragment.Get("code"))
}

func TestAuthorizeHybridFlow(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	client := registerTestClient(t, p, "hybrid-app", nil)

	result, err := p.Authorize(ctx, domain.AuthorizeRequest{
		ClientID:     client.ID,
		RedirectURI:  client.RedirectURIs[0],
		ResponseType: "code id_token",
		Scope:        "openid",
		Nonce:        "n-2",
	}, "user-1")
	require.NoError(t, err)

	redirect, err := url.Parse(result.RedirectURL)
	require.NoError(t, err)
	fragment, err := url.ParseQuery(redirect.Fragment)
	require.NoError(t, err)

	// Hybrid responses carry everything in the fragment, including the code.
	assert.NotEmpty(t, fragment.Get("code"))
	assert.NotEmpty(t, fragment.Get("id_token"))
	assert.Empty(t, redirect.RawQuery)
}

func TestAuthorizeScopeResolution(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	client := registerTestClient(t, p, "webapp", func(c *domain.OAuth2Client) {
		c.Scopes = []string{"openid", "profile"}
	})

	t.Run("unknown scopes silently dropped", func(t *testing.T) {
		result, err := p.Authorize(ctx, domain.AuthorizeRequest{
			ClientID:     client.ID,
			RedirectURI:  client.RedirectURIs[0],
			ResponseType: "code",
			Scope:        "openid made-up-scope",
		}, "user-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"openid"}, result.Scopes)
	})

	t.Run("empty scope falls back to client scopes", func(t *testing.T) {
		result, err := p.Authorize(ctx, domain.AuthorizeRequest{
			ClientID:     client.ID,
			RedirectURI:  client.RedirectURIs[0],
			ResponseType: "code",
		}, "user-1")
		require.NoError(t, err)
		assert.Equal(t, client.Scopes, result.Scopes)
	})
}

func TestAuthorizeConsentBranch(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	client := registerTestClient(t, p, "untrusted-app", func(c *domain.OAuth2Client) {
		c.Trusted = false
		c.RequireConsent = true
	})

	req := domain.AuthorizeRequest{
		ClientID:     client.ID,
		RedirectURI:  client.RedirectURIs[0],
		ResponseType: "code",
		Scope:        "openid profile",
		State:        "s-1",
	}

	// First pass: consent outstanding, no redirect yet.
	result, err := p.Authorize(ctx, req, "user-1")
	require.NoError(t, err)
	require.True(t, result.RequireConsent)
	assert.Empty(t, result.RedirectURL)
	assert.Equal(t, []string{"openid", "profile"}, result.Scopes)

	// The user approves; the flow completes and records the consent.
	approved, err := p.Approve(ctx, req, "user-1", result.Scopes)
	require.NoError(t, err)
	assert.False(t, approved.RequireConsent)
	assert.True(t, strings.Contains(approved.RedirectURL, "code="))

	// Second authorize skips straight to the redirect.
	again, err := p.Authorize(ctx, req, "user-1")
	require.NoError(t, err)
	assert.False(t, again.RequireConsent)
	assert.NotEmpty(t, again.RedirectURL)

	// A different user still needs consent.
	other, err := p.Authorize(ctx, req, "user-2")
	require.NoError(t, err)
	assert.True(t, other.RequireConsent)
}

func TestAuthorizeTrustedClientSkipsConsent(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	client := registerTestClient(t, p, "first-party", func(c *domain.OAuth2Client) {
		c.Trusted = true
		c.RequireConsent = true
	})

	result, err := p.Authorize(ctx, domain.AuthorizeRequest{
		ClientID:     client.ID,
		RedirectURI:  client.RedirectURIs[0],
		ResponseType: "code",
		Scope:        "openid",
	}, "user-1")
	require.NoError(t, err)
	assert.False(t, result.RequireConsent)
}

func TestAuthorizeConsentScopeTriggersPrompt(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	// offline_access is seeded with Consent set; the client does not force
	// consent itself.
	client := registerTestClient(t, p, "cli-app", func(c *domain.OAuth2Client) {
		c.Trusted = false
		c.RequireConsent = false
		c.Scopes = []string{"openid", "offline_access"}
	})

	result, err := p.Authorize(ctx, domain.AuthorizeRequest{
		ClientID:     client.ID,
		RedirectURI:  client.RedirectURIs[0],
		ResponseType: "code",
		Scope:        "openid offline_access",
	}, "user-1")
	require.NoError(t, err)
	assert.True(t, result.RequireConsent)
}

func TestDiscoveryDocument(t *testing.T) {
	p := newTestProvider(t)
	doc := p.DiscoveryDocument(context.Background())

	issuer := p.Registry().Issuer()
	assert.Equal(t, issuer, doc.Issuer)
	assert.Equal(t, issuer+"/oauth2/authorize", doc.AuthorizationEndpoint)
	assert.Equal(t, issuer+"/oauth2/token", doc.TokenEndpoint)
	assert.Equal(t, issuer+"/oauth2/introspect", doc.IntrospectionEndpoint)
	assert.Equal(t, issuer+"/oauth2/revoke", doc.RevocationEndpoint)
	assert.Equal(t, issuer+"/oauth2/device_authorization", doc.DeviceAuthorizationEndpoint)
	assert.Equal(t, issuer+"/.well-known/jwks.json", doc.JWKSURI)
	assert.Contains(t, doc.ScopesSupported, "openid")
	assert.Equal(t, []string{"RS256"}, doc.IDTokenSigningAlgValuesSupported)
	assert.ElementsMatch(t, []string{"plain", "S256"}, doc.CodeChallengeMethodsSupported)
}

// Every advertised grant type must dispatch to a real handler: the document
// and the dispatcher share one capability list.
func TestDiscoveryGrantTypesAllDispatch(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	client := registerTestClient(t, p, "dispatch-check", nil)

	doc := p.DiscoveryDocument(ctx)
	for _, grantType := range doc.GrantTypesSupported {
		_, err := p.Token(ctx, domain.TokenRequest{
			GrantType:    grantType,
			ClientID:     client.ID,
			ClientSecret: client.Secret,
		})
		assert.NotErrorIs(t, err, domain.ErrUnsupportedGrantType, "grant %q has no handler", grantType)
	}
}

func TestDeviceAuthorizationRequiresGrant(t *testing.T) {
	p := newTestProvider(t)
	client := registerTestClient(t, p, "no-device", func(c *domain.OAuth2Client) {
		c.GrantTypes = []string{domain.GrantAuthorizationCode}
	})

	_, err := p.DeviceAuthorization(context.Background(), client.ID, "openid")
	assert.ErrorIs(t, err, domain.ErrGrantNotAllowed)
}

func TestDeviceAuthorizationResponse(t *testing.T) {
	p := newTestProvider(t)
	client := registerTestClient(t, p, "tv-app", nil)

	authorization, err := p.DeviceAuthorization(context.Background(), client.ID, "openid")
	require.NoError(t, err)

	assert.NotEmpty(t, authorization.DeviceCode)
	assert.Regexp(t, `^[BCDFGHJKLMNPQRSTVWXZ0-9]{4}-[BCDFGHJKLMNPQRSTVWXZ0-9]{4}$`, authorization.UserCode)
	assert.Equal(t, p.Registry().Issuer()+"/device", authorization.VerificationURI)
	assert.Contains(t, authorization.VerificationURIComplete, "user_code=")
	assert.Greater(t, authorization.ExpiresIn, int64(0))
	assert.Greater(t, authorization.Interval, 0)
}
