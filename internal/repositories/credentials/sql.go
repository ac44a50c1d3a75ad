package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/models"
)

type columns struct {
	presence   string // empty for required fields
	nonce      string
	ciphertext string
}

var fieldColumns = map[models.Field]columns{
	models.FieldApplication: {"has_application", "application_nonce", "application_ciphertext"},
	models.FieldUser:        {"", "user_nonce", "user_ciphertext"},
	models.FieldPassword:    {"", "password_nonce", "password_ciphertext"},
	models.FieldObs:         {"has_obs", "obs_nonce", "obs_ciphertext"},
}

const selectColumns = `id, key_epoch,
	has_application, application_nonce, application_ciphertext,
	user_nonce, user_ciphertext,
	password_nonce, password_ciphertext,
	has_obs, obs_nonce, obs_ciphertext`

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

// optional splits an optional sealed field into its column values.
func optional(f *models.SealedField) (present bool, nonce, ciphertext []byte) {
	if f == nil {
		return false, nil, nil
	}
	return true, f.Nonce, f.Ciphertext
}

func (r *SQLRepository) Insert(ctx context.Context, row *models.CredentialRow) (int64, error) {
	query := `INSERT INTO credentials (key_epoch,
			has_application, application_nonce, application_ciphertext,
			user_nonce, user_ciphertext,
			password_nonce, password_ciphertext,
			has_obs, obs_nonce, obs_ciphertext)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	hasApp, appNonce, appCT := optional(row.Application)
	hasObs, obsNonce, obsCT := optional(row.Obs)

	var id int64
	err := r.db.QueryRowContext(ctx, r.q(query), row.KeyEpoch,
		hasApp, appNonce, appCT,
		row.User.Nonce, row.User.Ciphertext,
		row.Password.Nonce, row.Password.Ciphertext,
		hasObs, obsNonce, obsCT).Scan(&id)
	if err != nil {
		return 0, common.StorageError("failed to insert credential", err)
	}
	return id, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*models.CredentialRow, error) {
	var (
		row            models.CredentialRow
		hasApp, hasObs bool
		app, obs       models.SealedField
	)
	err := s.Scan(&row.ID, &row.KeyEpoch,
		&hasApp, &app.Nonce, &app.Ciphertext,
		&row.User.Nonce, &row.User.Ciphertext,
		&row.Password.Nonce, &row.Password.Ciphertext,
		&hasObs, &obs.Nonce, &obs.Ciphertext)
	if err != nil {
		return nil, err
	}
	if hasApp {
		row.Application = &app
	}
	if hasObs {
		row.Obs = &obs
	}
	return &row, nil
}

func (r *SQLRepository) Get(ctx context.Context, id int64) (*models.CredentialRow, error) {
	query := `SELECT ` + selectColumns + ` FROM credentials WHERE id = ?`

	row, err := scanRow(r.db.QueryRowContext(ctx, r.q(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.StorageError(fmt.Sprintf("failed to get credential %d", id), err)
	}
	return row, nil
}

func (r *SQLRepository) UpdateFields(ctx context.Context, id int64, fields map[models.Field]*models.SealedField) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields to update", common.ErrInvalidArgument)
	}
	for f := range fields {
		if _, ok := fieldColumns[f]; !ok {
			return fmt.Errorf("%w: unknown field %q", common.ErrInvalidArgument, string(f))
		}
	}

	var (
		sets []string
		args []any
	)
	// iterate in a fixed order so the statement text is stable
	for _, f := range models.Fields {
		sealed, ok := fields[f]
		if !ok {
			continue
		}
		cols := fieldColumns[f]
		if sealed == nil && cols.presence == "" {
			return fmt.Errorf("%w: field %s is required", common.ErrInvalidArgument, f)
		}
		present, nonce, ct := optional(sealed)
		if cols.presence != "" {
			sets = append(sets, cols.presence+" = ?")
			args = append(args, present)
		}
		sets = append(sets, cols.nonce+" = ?", cols.ciphertext+" = ?")
		args = append(args, nonce, ct)
	}

	query := `UPDATE credentials SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, id)
	return r.execOne(ctx, fmt.Sprintf("failed to update credential %d", id), query, args...)
}

func (r *SQLRepository) Replace(ctx context.Context, row *models.CredentialRow) error {
	query := `UPDATE credentials SET key_epoch = ?,
			has_application = ?, application_nonce = ?, application_ciphertext = ?,
			user_nonce = ?, user_ciphertext = ?,
			password_nonce = ?, password_ciphertext = ?,
			has_obs = ?, obs_nonce = ?, obs_ciphertext = ?
		WHERE id = ?`

	hasApp, appNonce, appCT := optional(row.Application)
	hasObs, obsNonce, obsCT := optional(row.Obs)

	return r.execOne(ctx, fmt.Sprintf("failed to replace credential %d", row.ID), query, row.KeyEpoch,
		hasApp, appNonce, appCT,
		row.User.Nonce, row.User.Ciphertext,
		row.Password.Nonce, row.Password.Ciphertext,
		hasObs, obsNonce, obsCT,
		row.ID)
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, fmt.Sprintf("failed to delete credential %d", id), `DELETE FROM credentials WHERE id = ?`, id)
}

func (r *SQLRepository) ListIDs(ctx context.Context) ([]int64, error) {
	return r.listIDs(ctx, `SELECT id FROM credentials ORDER BY id`)
}

func (r *SQLRepository) ListIDsByEpoch(ctx context.Context, epoch int64) ([]int64, error) {
	return r.listIDs(ctx, `SELECT id FROM credentials WHERE key_epoch = ? ORDER BY id`, epoch)
}

func (r *SQLRepository) listIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, common.StorageError("failed to list credentials", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, common.StorageError("failed to scan credential id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("failed to iterate credentials", err)
	}
	return ids, nil
}

func (r *SQLRepository) All(ctx context.Context) ([]models.CredentialRow, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+selectColumns+` FROM credentials ORDER BY id`))
	if err != nil {
		return nil, common.StorageError("failed to select credentials", err)
	}
	defer rows.Close()

	result := []models.CredentialRow{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, common.StorageError("failed to scan credential", err)
		}
		result = append(result, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("failed to iterate credentials", err)
	}
	return result, nil
}

// execOne runs a statement that must touch exactly one row.
func (r *SQLRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, r.q(query), args...)
	if err != nil {
		return common.StorageError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.StorageError("failed to get rows affected", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
