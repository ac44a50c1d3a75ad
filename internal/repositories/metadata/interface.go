package metadata

import (
	"context"
	"time"

	"github.com/dmitrijs2005/credvault/internal/models"
)

// Repository persists the single VaultMetadata record.
type Repository interface {
	// Get returns the metadata or common.ErrNotFound when the vault is empty.
	Get(ctx context.Context) (*models.VaultMetadata, error)

	// Create stores m. It fails with common.ErrAlreadyExists if metadata exists.
	Create(ctx context.Context, m *models.VaultMetadata) error

	SetModifiedTime(ctx context.Context, t time.Time) error
	SetLastReadTime(ctx context.Context, t time.Time) error

	// ReplaceKey swaps the verifier, salt and epoch in one statement.
	ReplaceKey(ctx context.Context, salt []byte, verifier models.SealedField, epoch int64) error
}
