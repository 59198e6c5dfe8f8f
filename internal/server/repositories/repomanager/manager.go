package repomanager

import (
	"context"
	"database/sql"

	"gymkeeper/internal/dbx"
	"gymkeeper/internal/server/repositories/refreshtokens"
	"gymkeeper/internal/server/repositories/revokedtokens"
	"gymkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, so the
// same repository code runs against *sql.DB or an open *sql.Tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository
}
