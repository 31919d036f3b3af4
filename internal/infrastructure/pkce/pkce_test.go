package pkce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestValidate(t *testing.T) {
	validator := NewValidator(zap.NewNop())

	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	challenge := S256Challenge(verifier)

	tests := []struct {
		name      string
		verifier  string
		challenge string
		method    string
		want      bool
	}{
		{
			name:      "valid S256",
			verifier:  verifier,
			challenge: challenge,
			method:    MethodS256,
			want:      true,
		},
		{
			name:      "invalid S256 verifier",
			verifier:  "wrong-verifier",
			challenge: challenge,
			method:    MethodS256,
			want:      false,
		},
		{
			name:      "valid plain",
			verifier:  "plain-secret",
			challenge: "plain-secret",
			method:    MethodPlain,
			want:      true,
		},
		{
			name:      "empty method defaults to plain",
			verifier:  "plain-secret",
			challenge: "plain-secret",
			method:    "",
			want:      true,
		},
		{
			name:      "plain mismatch",
			verifier:  "plain-secret",
			challenge: "other-secret",
			method:    MethodPlain,
			want:      false,
		},
		{
			name:      "unknown method",
			verifier:  "plain-secret",
			challenge: "plain-secret",
			method:    "S512",
			want:      false,
		},
		{
			name:      "empty verifier",
			verifier:  "",
			challenge: challenge,
			method:    MethodS256,
			want:      false,
		},
		{
			name:      "empty challenge",
			verifier:  verifier,
			challenge: "",
			method:    MethodS256,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validator.Validate(tt.verifier, tt.challenge, tt.method))
		})
	}
}

func TestS256ChallengeKnownVector(t *testing.T) {
	// Appendix B of RFC 7636.
	got := S256Challenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", got)
}
