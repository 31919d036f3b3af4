package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// IDTokenClaims are the OIDC claims carried by a signed ID token.
type IDTokenClaims struct {
	jwt.RegisteredClaims
	AuthTime int64    `json:"auth_time,omitempty"`
	Nonce    string   `json:"nonce,omitempty"`
	ACR      string   `json:"acr,omitempty"`
	AMR      []string `json:"amr,omitempty"`
	AZP      string   `json:"azp,omitempty"`
}
