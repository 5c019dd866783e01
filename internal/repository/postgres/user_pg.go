// internal/repository/postgres/user_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"userhub/internal/domain"
	"userhub/internal/repository"
	"userhub/internal/util"
)

// pq error code for unique_violation.
const uniqueViolationCode = "23505"

// UserRepository implements repository.UserRepository for PostgreSQL.
// It is bound to a single DBExecutor (pool or transaction) at construction.
type UserRepository struct {
	q repository.DBExecutor
}

// NewUserRepository creates a UserRepository bound to the given executor.
func NewUserRepository(q repository.DBExecutor) *UserRepository {
	return &UserRepository{q: q}
}

// Create inserts a new user and echoes back the row as persisted.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (id, email, username, full_name, is_active, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING id, email, username, full_name, is_active, created_at, updated_at`
	var created domain.User
	err := r.q.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Username, user.FullName, user.IsActive, user.CreatedAt, user.UpdatedAt,
	).Scan(&created.ID, &created.Email, &created.Username, &created.FullName, &created.IsActive, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if conflictErr := translateUniqueViolation(err); conflictErr != nil {
			return nil, conflictErr
		}
		return nil, fmt.Errorf("%w: failed to create user: %v", util.ErrStorage, err)
	}
	return &created, nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, email, username, full_name, is_active, created_at, updated_at
              FROM users WHERE id = $1`
	if err := r.q.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %s", util.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: failed to get user by id: %v", util.ErrStorage, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, email, username, full_name, is_active, created_at, updated_at
              FROM users WHERE email = $1`
	if err := r.q.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: email %s", util.ErrNotFound, email)
		}
		return nil, fmt.Errorf("%w: failed to get user by email: %v", util.ErrStorage, err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by their normalized username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, email, username, full_name, is_active, created_at, updated_at
              FROM users WHERE username = $1`
	if err := r.q.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: username %s", util.ErrNotFound, username)
		}
		return nil, fmt.Errorf("%w: failed to get user by username: %v", util.ErrStorage, err)
	}
	return &user, nil
}

// GetAll returns one page of users, newest first.
func (r *UserRepository) GetAll(ctx context.Context, skip, limit int) ([]domain.User, error) {
	users := []domain.User{}
	query := `SELECT id, email, username, full_name, is_active, created_at, updated_at
              FROM users ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	if err := r.q.SelectContext(ctx, &users, query, skip, limit); err != nil {
		return nil, fmt.Errorf("%w: failed to list users: %v", util.ErrStorage, err)
	}
	return users, nil
}

// Count returns the total number of user rows.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.q.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("%w: failed to count users: %v", util.ErrStorage, err)
	}
	return total, nil
}

// Update replaces the mutable fields of the user's row. A vanished row
// surfaces as util.ErrNotFound; the caller's prior existence check makes the
// window for this narrow but not zero.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `UPDATE users
              SET email = $1, username = $2, full_name = $3, is_active = $4, updated_at = $5
              WHERE id = $6`
	result, err := r.q.ExecContext(ctx, query,
		user.Email, user.Username, user.FullName, user.IsActive, user.UpdatedAt, user.ID,
	)
	if err != nil {
		if conflictErr := translateUniqueViolation(err); conflictErr != nil {
			return nil, conflictErr
		}
		return nil, fmt.Errorf("%w: failed to update user: %v", util.ErrStorage, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get rows affected after update: %v", util.ErrStorage, err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: id %s", util.ErrNotFound, user.ID)
	}
	return user, nil
}

// Delete removes the user row. It reports false when no row existed.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("%w: failed to delete user: %v", util.ErrStorage, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: failed to get rows affected after delete: %v", util.ErrStorage, err)
	}
	return rowsAffected > 0, nil
}

// translateUniqueViolation maps a unique-constraint violation to the domain
// conflict error, naming the field from the constraint. This is the race
// backstop: concurrent writers that both passed the service-layer pre-check
// are decided here by the database.
func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolationCode {
		return nil
	}
	field := "email or username"
	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		field = "email"
	case strings.Contains(pqErr.Constraint, "username"):
		field = "username"
	}
	return fmt.Errorf("%w: %s", util.ErrAlreadyExists, field)
}

var _ repository.UserRepository = (*UserRepository)(nil)
