package shared

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyVerifier checks presented service credentials against a bcrypt hash
// configured at startup. The key is pre-hashed with SHA-256 so inputs longer
// than bcrypt's 72-byte limit are still usable.
type APIKeyVerifier struct {
	hash []byte
}

// NewAPIKeyVerifier builds a verifier from the configured bcrypt hash.
func NewAPIKeyVerifier(hash string) *APIKeyVerifier {
	return &APIKeyVerifier{hash: []byte(hash)}
}

// HashAPIKey produces the bcrypt hash stored in configuration.
func HashAPIKey(key string) (string, error) {
	sum := sha256.Sum256([]byte(key))
	hash, err := bcrypt.GenerateFromPassword(sum[:], bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether the presented key matches the configured hash.
func (v *APIKeyVerifier) Verify(key string) error {
	if v == nil || len(v.hash) == 0 {
		return ErrInvalidAPIKey
	}
	if key == "" {
		return ErrInvalidAPIKey
	}
	sum := sha256.Sum256([]byte(key))
	if err := bcrypt.CompareHashAndPassword(v.hash, sum[:]); err != nil {
		return ErrInvalidAPIKey
	}
	return nil
}
