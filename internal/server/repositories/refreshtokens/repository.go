// Package refreshtokens declares the repository contract for persisted
// refresh-token records. Only SHA-256 hashes of raw tokens are stored.
package refreshtokens

import (
	"context"
	"time"

	"gymkeeper/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking
// refresh-token records.
type Repository interface {
	// Create inserts a new non-revoked record. The token hash is unique;
	// exactly one record backs a given raw token at a time.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindByHash looks up a record by the raw token's hash.
	// Returns common.ErrorNotFound when absent.
	FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Revoke flips the record's revoked flag. It reports true only when this
	// call performed the transition; false means the record was already
	// revoked or does not exist, which lets concurrent rotations of the same
	// token agree on a single winner.
	Revoke(ctx context.Context, tokenHash string) (bool, error)

	// RevokeAllForUser revokes every non-revoked record owned by the user.
	RevokeAllForUser(ctx context.Context, userID string) error

	// DeleteExpired removes records whose expiry is before the given instant
	// and returns the number of rows deleted.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
