package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/repositories/credentials"
	"github.com/dmitrijs2005/credvault/internal/repositories/metadata"
	"github.com/dmitrijs2005/credvault/internal/repositories/rotation"
)

// SQLiteRepositoryManager vends SQLite-backed repositories.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Dialect() dbx.Dialect { return dbx.SQLite }

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, db, dbx.SQLite)
}

func (m *SQLiteRepositoryManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Credentials(db dbx.DBTX) credentials.Repository {
	return credentials.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Rotation(db dbx.DBTX) rotation.Repository {
	return rotation.NewSQLiteRepository(db)
}
