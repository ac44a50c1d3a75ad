// Package metadata stores the vault metadata row: timestamps, the sealed key
// verifier, the vault associated data, salt, cipher suite and key epoch.
//
// Timestamps are written as fixed-width RFC 3339 strings in UTC so the text
// column sorts in time order on every backend.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/models"
	"github.com/google/uuid"
)

// TimeLayout is RFC 3339 with a fixed nine-digit fraction.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// SQLRepository implements Repository over a DBTX for one SQL dialect.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

// NewSQLiteRepository returns a Repository bound to a SQLite DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.SQLite}
}

// NewPostgresRepository returns a Repository bound to a PostgreSQL DBTX.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.Postgres}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

func (r *SQLRepository) Get(ctx context.Context) (*models.VaultMetadata, error) {
	query := `SELECT vault_id, creation_time, modified_time, last_read_time,
			key_verifier_nonce, key_verifier_ciphertext, vault_associated_data,
			vault_salt, cipher_suite, key_epoch
		FROM metadata WHERE id = 1`

	var (
		m                         models.VaultMetadata
		vaultID                   string
		created, modified, readAt string
	)
	err := r.db.QueryRowContext(ctx, r.q(query)).Scan(
		&vaultID, &created, &modified, &readAt,
		&m.Verifier.Nonce, &m.Verifier.Ciphertext, &m.AssociatedData,
		&m.Salt, &m.CipherSuite, &m.KeyEpoch)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.StorageError("failed to get metadata", err)
	}

	if m.VaultID, err = uuid.Parse(vaultID); err != nil {
		return nil, common.StorageError("failed to parse vault id", err)
	}
	for _, p := range []struct {
		dst *time.Time
		src string
	}{{&m.CreationTime, created}, {&m.ModifiedTime, modified}, {&m.LastReadTime, readAt}} {
		if *p.dst, err = parseTime(p.src); err != nil {
			return nil, common.StorageError("failed to parse metadata timestamp", err)
		}
	}
	return &m, nil
}

func (r *SQLRepository) Create(ctx context.Context, m *models.VaultMetadata) error {
	query := `INSERT INTO metadata (id, vault_id, creation_time, modified_time, last_read_time,
			key_verifier_nonce, key_verifier_ciphertext, vault_associated_data,
			vault_salt, cipher_suite, key_epoch)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, r.q(query),
		m.VaultID.String(), formatTime(m.CreationTime), formatTime(m.ModifiedTime), formatTime(m.LastReadTime),
		m.Verifier.Nonce, m.Verifier.Ciphertext, m.AssociatedData,
		m.Salt, m.CipherSuite, m.KeyEpoch)
	if err != nil {
		return common.StorageError("failed to create metadata", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.StorageError("failed to get rows affected", err)
	}
	if n == 0 {
		return common.ErrAlreadyExists
	}
	return nil
}

func (r *SQLRepository) setTime(ctx context.Context, column string, t time.Time) error {
	// column is one of two constants below, never user input.
	query := fmt.Sprintf(`UPDATE metadata SET %s = ? WHERE id = 1`, column)
	return r.execOne(ctx, "failed to set "+column, query, formatTime(t))
}

func (r *SQLRepository) SetModifiedTime(ctx context.Context, t time.Time) error {
	return r.setTime(ctx, "modified_time", t)
}

func (r *SQLRepository) SetLastReadTime(ctx context.Context, t time.Time) error {
	return r.setTime(ctx, "last_read_time", t)
}

func (r *SQLRepository) ReplaceKey(ctx context.Context, salt []byte, verifier models.SealedField, epoch int64) error {
	query := `UPDATE metadata
		SET vault_salt = ?, key_verifier_nonce = ?, key_verifier_ciphertext = ?, key_epoch = ?
		WHERE id = 1`
	return r.execOne(ctx, "failed to replace vault key", query, salt, verifier.Nonce, verifier.Ciphertext, epoch)
}

func (r *SQLRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, r.q(query), args...)
	if err != nil {
		return common.StorageError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.StorageError("failed to get rows affected", err)
	}
	if n != 1 {
		return common.ErrNotFound
	}
	return nil
}
