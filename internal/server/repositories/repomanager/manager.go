// Package repomanager wires repository implementations to database handles.
// Services hold a manager plus a *sql.DB and ask for repositories bound to
// either the DB itself or a transaction, which keeps multi-write flows
// (registration, password reset) composable under dbx.WithTx.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/fitplan/fitplan/internal/dbx"
	"github.com/fitplan/fitplan/internal/server/repositories/invitations"
	"github.com/fitplan/fitplan/internal/server/repositories/refreshtokens"
	"github.com/fitplan/fitplan/internal/server/repositories/resettokens"
	"github.com/fitplan/fitplan/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DB or transaction
// handle and knows how to bring the schema up to date.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Invitations(db dbx.DBTX) invitations.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
