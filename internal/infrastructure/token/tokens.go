package tokens

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"strings"
)

// OpaqueTokenBytes is the entropy of opaque credentials (256 bits).
const OpaqueTokenBytes = 32

// userCodeCharset avoids vowels and ambiguous characters so user codes are
// easy to read out loud and cannot spell words.
const userCodeCharset = "BCDFGHJKLMNPQRSTVWXZ0123456789"

// GenerateOpaque returns a random opaque token, base64url without padding.
func GenerateOpaque(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateUserCode returns an RFC 8628 user-facing code like "BXK3-QF7N".
func GenerateUserCode() (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(userCodeCharset)))
	for i := 0; i < 8; i++ {
		if i == 4 {
			sb.WriteByte('-')
		}
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(userCodeCharset[n.Int64()])
	}
	return sb.String(), nil
}
