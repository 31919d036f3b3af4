package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/domain"
)

// SigningAlgorithm is the only algorithm the signer produces and accepts.
const SigningAlgorithm = "RS256"

// Signer signs and verifies compact tokens with a rotate-able RSA key pair.
// The public half is exposed through JWKS so generic OIDC clients can verify
// ID tokens without custom integration.
type Signer struct {
	mu           sync.RWMutex
	privateKey   *rsa.PrivateKey
	publicKey    *rsa.PublicKey
	keyID        string
	keySize      int
	lastRotation time.Time
	logger       *zap.Logger
}

// NewSigner generates a fresh key pair of the given size.
func NewSigner(keySize int, logger *zap.Logger) (*Signer, error) {
	s := &Signer{keySize: keySize, logger: logger}
	if err := s.RotateKey(); err != nil {
		return nil, err
	}
	return s, nil
}

// RotateKey generates a new key pair and updates the key ID. Tokens signed
// with the previous key stop verifying; callers decide the rotation cadence.
func (s *Signer) RotateKey() error {
	privateKey, err := rsa.GenerateKey(rand.Reader, s.keySize)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.privateKey = privateKey
	s.publicKey = &privateKey.PublicKey
	s.keyID = generateKeyID(privateKey)
	s.lastRotation = time.Now()
	return nil
}

// KeyID returns the current key ID.
func (s *Signer) KeyID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keyID
}

// LastRotation returns the last key rotation time.
func (s *Signer) LastRotation() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRotation
}

// Sign signs the claims into a compact three-part token.
func (s *Signer) Sign(claims jwt.Claims) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		s.logger.Error("Failed to sign token", zap.Error(err))
		return "", domain.ErrInternal
	}
	return signed, nil
}

// Verify parses the token and checks its signature against the current key.
// Structural corruption and signature mismatch both fail with
// domain.ErrInvalidSignature; no partial claims are ever returned.
func (s *Signer) Verify(tokenString string) (*domain.IDTokenClaims, error) {
	s.mu.RLock()
	publicKey := s.publicKey
	s.mu.RUnlock()

	claims := &domain.IDTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, domain.ErrInvalidSignature
		}
		return publicKey, nil
	})
	if err != nil || !token.Valid {
		s.logger.Debug("Token verification failed", zap.Error(err))
		return nil, domain.ErrInvalidSignature
	}
	return claims, nil
}

// JWKS returns the JSON Web Key Set holding the current public key.
func (s *Signer) JWKS(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	publicKey := s.publicKey
	keyID := s.keyID
	s.mu.RUnlock()

	key, err := jwk.FromRaw(publicKey)
	if err != nil {
		s.logger.Error("Failed to build JWK from public key", zap.Error(err))
		return nil, domain.ErrInternal
	}
	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, domain.ErrInternal
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		return nil, domain.ErrInternal
	}
	if err := key.Set(jwk.KeyUsageKey, string(jwk.ForSignature)); err != nil {
		return nil, domain.ErrInternal
	}

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, domain.ErrInternal
	}

	raw, err := json.Marshal(set)
	if err != nil {
		return nil, domain.ErrInternal
	}
	var jwks map[string]interface{}
	if err := json.Unmarshal(raw, &jwks); err != nil {
		return nil, domain.ErrInternal
	}
	return jwks, nil
}

// generateKeyID derives a stable key ID from the public key components.
func generateKeyID(key *rsa.PrivateKey) string {
	data := append(key.N.Bytes(), byte(key.E))
	hash := sha256.Sum256(data)
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
