package auth

import (
	"errors"
	"fmt"
)

// MinKeyBytes is the minimum length of an HS256 signing secret (256 bits).
const MinKeyBytes = 32

// Keys holds the two process-wide signing secrets. Access and refresh tokens
// are signed with independent keys so one leaked secret cannot forge the
// other kind. Loaded once at startup and immutable for the process lifetime.
type Keys struct {
	Access  []byte
	Refresh []byte
}

// NewKeys validates both secrets and returns the key set. Short or equal
// secrets are a startup error, not a first-use error.
func NewKeys(accessSecret, refreshSecret string) (*Keys, error) {
	if len(accessSecret) < MinKeyBytes {
		return nil, fmt.Errorf("access signing key must be at least %d bytes, got %d", MinKeyBytes, len(accessSecret))
	}
	if len(refreshSecret) < MinKeyBytes {
		return nil, fmt.Errorf("refresh signing key must be at least %d bytes, got %d", MinKeyBytes, len(refreshSecret))
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh signing keys must differ")
	}
	return &Keys{Access: []byte(accessSecret), Refresh: []byte(refreshSecret)}, nil
}
