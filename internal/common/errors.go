// Package common defines shared constants and sentinel errors used across
// GymKeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Login errors. Unknown email and wrong password are deliberately
	// collapsed into ErrInvalidCredentials to avoid user enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")

	// Token lifecycle errors.
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrTokenNotRecognized = errors.New("token not recognized")
	ErrTokenReuseDetected = errors.New("token reuse detected")

	// Session resolution errors.
	ErrUnauthenticated = errors.New("unauthenticated")
)
