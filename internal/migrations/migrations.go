// Package migrations embeds the goose schema migrations, one directory per
// SQL dialect, and applies them.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

var dirs = map[dbx.Dialect]string{
	dbx.SQLite:   "sqlite",
	dbx.Postgres: "postgres",
}

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Up applies every pending migration for dialect. It is idempotent.
func Up(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	dir, ok := dirs[dialect]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}
	sub, err := fs.Sub(Migrations, dir)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}
