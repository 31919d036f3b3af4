package domain

import (
	"time"
)

// TokenTypeBearer is the only token type the server issues.
const TokenTypeBearer = "Bearer"

// Token type hints accepted by introspection and revocation (RFC 7662/7009).
const (
	TokenHintAccess  = "access_token"
	TokenHintRefresh = "refresh_token"
)

// AccessToken represents an opaque access token resolvable by server-side lookup.
type AccessToken struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ClientID  string    `json:"client_id"`
	UserID    string    `json:"user_id,omitempty"`
	Scopes    []string  `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// OIDC-aligned metadata carried for introspection and ID-token parity.
	JTI             string    `json:"jti"`
	Issuer          string    `json:"iss"`
	Subject         string    `json:"sub,omitempty"`
	Audience        string    `json:"aud"`
	AuthorizedParty string    `json:"azp,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	AuthTime        time.Time `json:"auth_time,omitempty"`
}

// Expired reports whether the token is past its lifetime.
func (t *AccessToken) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}

// RefreshToken represents an opaque refresh token. Every refresh token belongs
// to a family; revoking any member revokes the whole family.
type RefreshToken struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"client_id"`
	UserID    string    `json:"user_id"`
	Scopes    []string  `json:"scopes"`
	FamilyID  string    `json:"family_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is past its lifetime.
func (t *RefreshToken) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}

// TokenSet is the token endpoint response per RFC 6749 §5.1.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Introspection is the introspection endpoint response per RFC 7662.
// Inactive tokens carry active=false and nothing else.
type Introspection struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Sub       string `json:"sub,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
}

// Revocation is a revocation request per RFC 7009.
type Revocation struct {
	Token         string `json:"token"`
	TokenTypeHint string `json:"token_type_hint,omitempty"`
}

// TokenRequest carries the token endpoint parameters for every grant.
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Code         string `json:"code,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	CodeVerifier string `json:"code_verifier,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	DeviceCode   string `json:"device_code,omitempty"`
}
