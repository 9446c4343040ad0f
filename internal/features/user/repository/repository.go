package repository

import (
	"context"
	"errors"

	"pronet-backend/internal/features/user/models"
)

// ErrNotFound is returned when a required user document does not exist.
var ErrNotFound = errors.New("user not found")

// UserRepository is the aggregate store holding user documents and their
// denormalized counters.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id string, update *models.UserUpdate) (*models.User, error)

	// IncrementCounter applies a non-transactional atomic increment to one
	// counter field. Callers must only decrement after proving a matching
	// edge existed, which is what keeps the counters non-negative.
	IncrementCounter(ctx context.Context, userID string, field models.CounterField, delta int64) error

	// GetSnapshots bulk-resolves lightweight profiles. Unknown ids are
	// silently omitted from the result.
	GetSnapshots(ctx context.Context, ids []string) ([]models.UserSnapshot, error)
}
