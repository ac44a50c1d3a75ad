package credentials

import (
	"context"

	"github.com/dmitrijs2005/credvault/internal/models"
)

// Repository stores sealed credential rows. It never sees plaintext.
type Repository interface {
	// Insert stores row and returns the id assigned by the backend. Ids are
	// never reused, even after the newest row is deleted.
	Insert(ctx context.Context, row *models.CredentialRow) (int64, error)

	// Get returns the row with id or common.ErrNotFound.
	Get(ctx context.Context, id int64) (*models.CredentialRow, error)

	// UpdateFields overwrites the given fields of one row. A nil value marks
	// an optional field absent. Returns common.ErrNotFound for a missing id.
	UpdateFields(ctx context.Context, id int64, fields map[models.Field]*models.SealedField) error

	// Replace overwrites every field and the key epoch of row.ID.
	Replace(ctx context.Context, row *models.CredentialRow) error

	// Delete removes the row or returns common.ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// ListIDs returns all ids in ascending order.
	ListIDs(ctx context.Context) ([]int64, error)

	// ListIDsByEpoch returns ids of rows sealed under epoch, ascending.
	ListIDsByEpoch(ctx context.Context, epoch int64) ([]int64, error)

	// All returns every row in id order.
	All(ctx context.Context) ([]models.CredentialRow, error)
}
