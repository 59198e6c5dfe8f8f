// Package revokedtokens declares the repository contract for the access-token
// blacklist: jti values that stay invalid until their natural expiry.
package revokedtokens

import (
	"context"
	"time"

	"gymkeeper/internal/server/models"
)

// Repository defines the blacklist operations used during verification,
// logout, and cleanup.
type Repository interface {
	// Create inserts a blacklist row for an access token's jti.
	Create(ctx context.Context, token *models.RevokedAccessToken) error

	// ExistsByJTI reports whether the jti has been revoked.
	ExistsByJTI(ctx context.Context, jti string) (bool, error)

	// DeleteExpired removes rows whose original token expiry is before the
	// given instant and returns the number of rows deleted.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
