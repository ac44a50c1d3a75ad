// Package repomanager vends the repositories of one storage backend and
// exposes its schema migration hook. It is the storage boundary of the vault:
// RunMigrations creates the schema, the repositories get, put and delete
// rows, and dbx.WithTx supplies transactions.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/migrations"
	"github.com/dmitrijs2005/credvault/internal/repositories/credentials"
	"github.com/dmitrijs2005/credvault/internal/repositories/metadata"
	"github.com/dmitrijs2005/credvault/internal/repositories/rotation"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type RepositoryManager interface {
	Dialect() dbx.Dialect
	RunMigrations(context.Context, *sql.DB) error
	Metadata(db dbx.DBTX) metadata.Repository
	Credentials(db dbx.DBTX) credentials.Repository
	Rotation(db dbx.DBTX) rotation.Repository
}

// migrateUp is a seam for testing migrations.Up.
var migrateUp = migrations.Up

// Open connects to the backend and returns the pool with its manager.
// SQLite is limited to a single connection so that a transaction never
// waits on a second writer from the same process.
func Open(ctx context.Context, backend, dsn string) (*sql.DB, RepositoryManager, error) {
	var (
		driver string
		m      RepositoryManager
	)
	switch backend {
	case BackendSQLite, "":
		driver, m = "sqlite", NewSQLiteRepositoryManager()
	case BackendPostgres:
		driver, m = "pgx", NewPostgresRepositoryManager()
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if m.Dialect() == dbx.SQLite {
		db.SetMaxOpenConns(1)
	}
	return db, m, nil
}
