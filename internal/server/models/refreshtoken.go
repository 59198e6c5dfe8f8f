package models

import "time"

// RefreshToken is a persisted refresh-token record. TokenHash is the SHA-256
// fingerprint of the raw token; the raw value itself is never stored. A row
// moves from active to revoked exactly once (rotation, logout, or admin
// invalidation) and never back.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	DeviceInfo string
	IPAddress  string
	CreatedAt  time.Time
}
