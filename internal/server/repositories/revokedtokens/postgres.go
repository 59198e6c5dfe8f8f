// Package revokedtokens provides the PostgreSQL-backed access-token blacklist.
package revokedtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gymkeeper/internal/dbx"
	"gymkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a blacklist row. Conflicting jti values are ignored: the
// token is already revoked, which is the state the caller asked for.
func (r *PostgresRepository) Create(ctx context.Context, token *models.RevokedAccessToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	token.RevokedAt = time.Now()

	query := `
		INSERT INTO revoked_access_tokens (id, jti, expires_at, user_id, reason, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (jti) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.ID, token.JTI, token.ExpiresAt, token.UserID, token.Reason, token.RevokedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ExistsByJTI reports whether a blacklist row exists for the jti.
func (r *PostgresRepository) ExistsByJTI(ctx context.Context, jti string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM revoked_access_tokens WHERE jti = $1)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, jti).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// DeleteExpired removes rows whose original token has expired on its own.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM revoked_access_tokens
		WHERE expires_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
