// Package rotation stores the single pending key-rotation record: the target
// key epoch, the new vault salt and the verifier sealed under the new key.
package rotation

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/models"
)

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.SQLite}
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.Postgres}
}

func (r *SQLRepository) Get(ctx context.Context) (*models.RotationState, error) {
	query := `SELECT target_epoch, vault_salt, key_verifier_nonce, key_verifier_ciphertext
		FROM rotation_state WHERE id = 1`

	var s models.RotationState
	err := r.db.QueryRowContext(ctx, query).Scan(&s.TargetEpoch, &s.Salt, &s.Verifier.Nonce, &s.Verifier.Ciphertext)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.StorageError("failed to get rotation state", err)
	}
	return &s, nil
}

func (r *SQLRepository) Create(ctx context.Context, s *models.RotationState) error {
	query := `INSERT INTO rotation_state (id, target_epoch, vault_salt, key_verifier_nonce, key_verifier_ciphertext)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, dbx.Rebind(r.dialect, query),
		s.TargetEpoch, s.Salt, s.Verifier.Nonce, s.Verifier.Ciphertext)
	if err != nil {
		return common.StorageError("failed to create rotation state", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.StorageError("failed to get rows affected", err)
	}
	if n == 0 {
		return common.ErrRotationInProgress
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rotation_state WHERE id = 1`); err != nil {
		return common.StorageError("failed to delete rotation state", err)
	}
	return nil
}
