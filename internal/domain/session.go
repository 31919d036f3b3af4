package domain

import (
	"time"
)

// OAuth2Session represents an authentication session referenced by ID-token
// claims. Sessions are deleted once expired.
type OAuth2Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ClientID     string    `json:"client_id,omitempty"`
	AuthTime     time.Time `json:"auth_time"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	ACR          string    `json:"acr,omitempty"`
	AMR          []string  `json:"amr,omitempty"`
}

// Expired reports whether the session is past its lifetime.
func (s *OAuth2Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}
