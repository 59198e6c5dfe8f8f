// Package cryptox bundles the hashing primitives used by the auth flows:
// bcrypt for passwords and SHA-256 for refresh-token fingerprints.
package cryptox

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of the given plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether candidate matches the stored bcrypt hash.
// bcrypt's comparison is constant-time with respect to the hash contents.
func VerifyPassword(hash string, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// HashToken returns the base64-encoded SHA-256 digest of a raw token string.
// Only this digest is ever persisted; the raw token stays with the client.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(sum[:])
}
