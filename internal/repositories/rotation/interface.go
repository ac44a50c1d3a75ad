package rotation

import (
	"context"

	"github.com/dmitrijs2005/credvault/internal/models"
)

// Repository persists the in-flight key rotation, if any.
type Repository interface {
	// Get returns the pending rotation or common.ErrNotFound.
	Get(ctx context.Context) (*models.RotationState, error)

	// Create records a new rotation. It fails with common.ErrRotationInProgress
	// if one is already pending.
	Create(ctx context.Context, s *models.RotationState) error

	// Delete clears the pending rotation. Missing state is not an error.
	Delete(ctx context.Context) error
}
