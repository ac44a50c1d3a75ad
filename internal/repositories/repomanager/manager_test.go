package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	for _, m := range []RepositoryManager{NewSQLiteRepositoryManager(), NewPostgresRepositoryManager()} {
		if m.Metadata(db) == nil {
			t.Fatal("Metadata() nil")
		}
		if m.Credentials(db) == nil {
			t.Fatal("Credentials() nil")
		}
		if m.Rotation(db) == nil {
			t.Fatal("Rotation() nil")
		}
	}
	require.Equal(t, dbx.SQLite, NewSQLiteRepositoryManager().Dialect())
	require.Equal(t, dbx.Postgres, NewPostgresRepositoryManager().Dialect())
}

func TestRunMigrations_PassesDialect(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var got []dbx.Dialect
	orig := migrateUp
	migrateUp = func(ctx context.Context, db *sql.DB, d dbx.Dialect) error {
		got = append(got, d)
		return nil
	}
	defer func() { migrateUp = orig }()

	require.NoError(t, NewSQLiteRepositoryManager().RunMigrations(context.Background(), db))
	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
	require.Equal(t, []dbx.Dialect{dbx.SQLite, dbx.Postgres}, got)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := migrateUp
	migrateUp = func(ctx context.Context, db *sql.DB, d dbx.Dialect) error {
		return errors.New("boom")
	}
	defer func() { migrateUp = orig }()

	err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
	require.EqualError(t, err, "boom")
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	db, m, err := Open(ctx, BackendSQLite, filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	defer db.Close()

	require.Equal(t, dbx.SQLite, m.Dialect())
	require.Equal(t, 1, db.Stats().MaxOpenConnections)

	ids, err := m.Credentials(db).ListIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, _, err := Open(context.Background(), "oracle", "x")
	require.Error(t, err)
}
