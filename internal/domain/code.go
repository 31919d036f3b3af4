package domain

import (
	"time"
)

// AuthorizationCode represents a single-use OAuth2 authorization code
type AuthorizationCode struct {
	Code                string    `json:"code"`
	ClientID            string    `json:"client_id"`
	UserID              string    `json:"user_id"`
	RedirectURI         string    `json:"redirect_uri"`
	Scopes              []string  `json:"scopes"`
	State               string    `json:"state,omitempty"`
	Nonce               string    `json:"nonce,omitempty"`
	CodeChallenge       string    `json:"code_challenge,omitempty"`
	CodeChallengeMethod string    `json:"code_challenge_method,omitempty"`
	SessionID           string    `json:"session_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	ExpiresAt           time.Time `json:"expires_at"`
}

// Expired reports whether the code is past its lifetime.
func (c *AuthorizationCode) Expired() bool {
	return time.Now().After(c.ExpiresAt)
}

// DeviceCode represents an RFC 8628 device authorization grant in progress.
// UserID and AuthorizedAt are set by an out-of-band approval step; until
// both are present the token endpoint answers authorization_pending.
type DeviceCode struct {
	DeviceCode   string     `json:"device_code"`
	UserCode     string     `json:"user_code"`
	ClientID     string     `json:"client_id"`
	Scopes       []string   `json:"scopes"`
	Interval     int        `json:"interval"`
	UserID       string     `json:"user_id,omitempty"`
	AuthorizedAt *time.Time `json:"authorized_at,omitempty"`
	LastPolledAt time.Time  `json:"last_polled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

// Expired reports whether the device code is past its lifetime.
func (d *DeviceCode) Expired() bool {
	return time.Now().After(d.ExpiresAt)
}

// Authorized reports whether the out-of-band approval has completed.
func (d *DeviceCode) Authorized() bool {
	return d.UserID != "" && d.AuthorizedAt != nil
}

// DeviceAuthorization is the response of the device authorization endpoint.
type DeviceAuthorization struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int64  `json:"expires_in"`
	Interval                int    `json:"interval"`
}
