package domain

import (
	"time"
)

// Token endpoint authentication methods supported for registered clients.
const (
	AuthMethodClientSecretBasic = "client_secret_basic"
	AuthMethodClientSecretPost  = "client_secret_post"
	AuthMethodNone              = "none"
)

// OAuth2Client represents a registered OAuth2 client
type OAuth2Client struct {
	ID            string   `json:"id"`
	Secret        string   `json:"secret,omitempty"`
	SecretHash    string   `json:"-"`
	Name          string   `json:"name"`
	RedirectURIs  []string `json:"redirect_uris"`
	GrantTypes    []string `json:"grant_types"`
	ResponseTypes []string `json:"response_types"`
	Scopes        []string `json:"scopes"`
	AuthMethod    string   `json:"token_endpoint_auth_method"`
	// RequireConsent forces the consent step even for scopes that would
	// otherwise be granted silently. Trusted clients skip it regardless.
	RequireConsent  bool              `json:"require_consent"`
	Trusted         bool              `json:"trusted"`
	CodeLifetime    time.Duration     `json:"code_lifetime,omitempty"`
	AccessLifetime  time.Duration     `json:"access_token_lifetime,omitempty"`
	RefreshLifetime time.Duration     `json:"refresh_token_lifetime,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// AllowsGrantType reports whether the client may use the given grant type.
func (c *OAuth2Client) AllowsGrantType(grantType string) bool {
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}

// AllowsResponseType reports whether the client may use the given response type.
func (c *OAuth2Client) AllowsResponseType(responseType string) bool {
	for _, r := range c.ResponseTypes {
		if r == responseType {
			return true
		}
	}
	return false
}

// AllowsRedirectURI reports whether the redirect URI is registered for the client.
func (c *OAuth2Client) AllowsRedirectURI(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// ClientFilter narrows ListClients results. The zero value matches everything.
type ClientFilter struct {
	GrantType string
	Scope     string
	Trusted   *bool
}

// Matches reports whether the client satisfies the filter.
func (f ClientFilter) Matches(c *OAuth2Client) bool {
	if f.GrantType != "" && !c.AllowsGrantType(f.GrantType) {
		return false
	}
	if f.Scope != "" {
		found := false
		for _, s := range c.Scopes {
			if s == f.Scope {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Trusted != nil && c.Trusted != *f.Trusted {
		return false
	}
	return true
}

// Scope represents a registered OAuth2 scope
type Scope struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Consent     bool     `json:"consent,omitempty"`
	Claims      []string `json:"claims,omitempty"`
}
