package models

import "time"

// RevokedAccessToken blacklists a single access token by its jti until the
// token's natural expiry. Rows past ExpiresAt are safe to delete: the token
// would fail verification on expiry alone.
type RevokedAccessToken struct {
	ID        string
	JTI       string
	ExpiresAt time.Time
	UserID    string
	Reason    string
	RevokedAt time.Time
}
