package pkce

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"go.uber.org/zap"
)

// Code challenge methods per RFC 7636.
const (
	MethodPlain = "plain"
	MethodS256  = "S256"
)

// Validator checks a PKCE code verifier against a stored challenge.
type Validator struct {
	logger *zap.Logger
}

// NewValidator creates a new Validator.
func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate reports whether the verifier matches the challenge under the given
// method. Unknown methods fail the check; it never panics or errors.
func (v *Validator) Validate(verifier, challenge, method string) bool {
	if verifier == "" || challenge == "" {
		return false
	}

	var expected string
	switch method {
	case MethodS256:
		expected = S256Challenge(verifier)
	case MethodPlain, "":
		expected = verifier
	default:
		v.logger.Debug("unknown code challenge method", zap.String("method", method))
		return false
	}

	return subtle.ConstantTimeCompare([]byte(expected), []byte(challenge)) == 1
}

// S256Challenge computes base64url(SHA-256(verifier)) without padding.
func S256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
