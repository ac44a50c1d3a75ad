package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/repositories/credentials"
	"github.com/dmitrijs2005/credvault/internal/repositories/metadata"
	"github.com/dmitrijs2005/credvault/internal/repositories/rotation"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Dialect() dbx.Dialect { return dbx.Postgres }

// RunMigrations applies the embedded PostgreSQL migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, db, dbx.Postgres)
}

// Metadata returns a metadata.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewPostgresRepository(db)
}

// Credentials returns a credentials.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Credentials(db dbx.DBTX) credentials.Repository {
	return credentials.NewPostgresRepository(db)
}

// Rotation returns a rotation.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Rotation(db dbx.DBTX) rotation.Repository {
	return rotation.NewPostgresRepository(db)
}
