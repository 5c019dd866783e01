// internal/repository/user_repo.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"userhub/internal/domain"
)

// UserRepository defines the persistence operations for users. Implementations
// are bound to a single executor (pool or transaction) at construction time.
//
// Lookup methods return util.ErrNotFound (wrapped) when no row matches. Any
// other failure wraps util.ErrStorage, except unique-constraint violations on
// writes, which wrap util.ErrAlreadyExists.
type UserRepository interface {
	// Create inserts a new user and returns it as persisted.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetByEmail retrieves a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByUsername retrieves a user by normalized username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetAll returns a page of users ordered by creation time descending.
	GetAll(ctx context.Context, skip, limit int) ([]domain.User, error)
	// Count returns the total number of users, unfiltered.
	Count(ctx context.Context) (int64, error)
	// Update replaces the mutable fields of the row matching user.ID. If no
	// row matches (the target vanished between lookup and write), it returns
	// util.ErrNotFound rather than silently succeeding.
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	// Delete removes the row with the given ID. It returns false and a nil
	// error when no row existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
