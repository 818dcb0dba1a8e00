package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sampleapp/internal/app/repositories/relationships"
	"github.com/dmitrijs2005/sampleapp/internal/app/repositories/users"
	"github.com/dmitrijs2005/sampleapp/internal/dbx"
)

// RepositoryManager hands out repositories bound to a DBTX, so the same code
// runs on the pool or inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Relationships(db dbx.DBTX) relationships.Repository
}
