// internal/service/user_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"userhub/internal/domain"
	"userhub/internal/repository"
	"userhub/internal/util"
)

// UserService defines the application operations on users. Each call runs as
// one unit of work: a linear sequence of repository calls with at most one
// commit, and a deferred rollback covering every failure path.
type UserService interface {
	CreateUser(ctx context.Context, email, username string, fullName *string) (*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetAllUsers(ctx context.Context, skip, limit int) ([]domain.User, int64, error)
	UpdateUser(ctx context.Context, id uuid.UUID, email, username, fullName *string) (*domain.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	DeactivateUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ActivateUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// userService implements the UserService interface.
type userService struct {
	uowFactory repository.UnitOfWorkFactory
	logger     *slog.Logger
}

// NewUserService creates a new instance of UserService.
func NewUserService(uowFactory repository.UnitOfWorkFactory, logger *slog.Logger) UserService {
	return &userService{
		uowFactory: uowFactory,
		logger:     logger,
	}
}

// CreateUser creates a new user after checking that the email and username
// are free. The pre-checks are advisory (they give precise errors); the
// unique constraints in the database are the backstop under concurrency, and
// a constraint violation at commit time surfaces as the same conflict error.
func (s *userService) CreateUser(ctx context.Context, email, username string, fullName *string) (*domain.User, error) {
	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	defer s.rollback(uow)

	// The pre-checks look up the normalized forms, which is what is stored.
	if err := s.ensureEmailFree(ctx, uow.Users(), normalizeEmail(email)); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.ensureUsernameFree(ctx, uow.Users(), strings.TrimSpace(username)); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	user, err := domain.NewUser(email, username, fullName)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	created, err := uow.Users().Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User created", "user_id", created.ID, "username", created.Username)
	return created, nil
}

// GetUser retrieves a user by ID.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	defer s.rollback(uow)

	user, err := uow.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetAllUsers returns one page of users, newest first, together with the
// unfiltered total. Both reads run in the same unit of work, so they see one
// consistent snapshot.
func (s *userService) GetAllUsers(ctx context.Context, skip, limit int) ([]domain.User, int64, error) {
	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("get all users: %w", err)
	}
	defer s.rollback(uow)

	users, err := uow.Users().GetAll(ctx, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("get all users: %w", err)
	}
	total, err := uow.Users().Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("get all users: %w", err)
	}
	return users, total, nil
}

// UpdateUser applies a partial update. Uniqueness is re-checked only for
// fields that are supplied and actually change value.
func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, email, username, fullName *string) (*domain.User, error) {
	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	defer s.rollback(uow)

	user, err := uow.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if email != nil && normalizeEmail(*email) != user.Email {
		if err := s.ensureEmailFree(ctx, uow.Users(), normalizeEmail(*email)); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	if username != nil && strings.TrimSpace(*username) != user.Username {
		if err := s.ensureUsernameFree(ctx, uow.Users(), strings.TrimSpace(*username)); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	if err := user.Update(email, username, fullName); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	updated, err := uow.Users().Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User updated", "user_id", updated.ID)
	return updated, nil
}

// DeleteUser removes a user. A missing user fails before the delete is issued.
func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	defer s.rollback(uow)

	if _, err := uow.Users().GetByID(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if _, err := uow.Users().Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("User deleted", "user_id", id)
	return nil
}

// DeactivateUser marks a user inactive.
func (s *userService) DeactivateUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.setActive(ctx, id, false)
}

// ActivateUser marks a user active again.
func (s *userService) ActivateUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.setActive(ctx, id, true)
}

func (s *userService) setActive(ctx context.Context, id uuid.UUID, active bool) (*domain.User, error) {
	op := "deactivate user"
	if active {
		op = "activate user"
	}

	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer s.rollback(uow)

	user, err := uow.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if active {
		user.Activate()
	} else {
		user.Deactivate()
	}

	updated, err := uow.Users().Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("User active state changed", "user_id", id, "is_active", active)
	return updated, nil
}

// ensureEmailFree succeeds when no user holds the given email. Not-found is
// the success case; any other lookup failure propagates.
func (s *userService) ensureEmailFree(ctx context.Context, users repository.UserRepository, email string) error {
	_, err := users.GetByEmail(ctx, email)
	if err == nil {
		return fmt.Errorf("%w: email %s", util.ErrAlreadyExists, email)
	}
	if !errors.Is(err, util.ErrNotFound) {
		return err
	}
	return nil
}

// ensureUsernameFree succeeds when no user holds the given username.
func (s *userService) ensureUsernameFree(ctx context.Context, users repository.UserRepository, username string) error {
	_, err := users.GetByUsername(ctx, username)
	if err == nil {
		return fmt.Errorf("%w: username %s", util.ErrAlreadyExists, username)
	}
	if !errors.Is(err, util.ErrNotFound) {
		return err
	}
	return nil
}

// rollback is the deferred scope-exit cleanup. After a successful commit it
// is a no-op; a genuine rollback failure is logged, never surfaced, so the
// original request error is what the caller sees.
func (s *userService) rollback(uow repository.UnitOfWork) {
	if err := uow.Rollback(); err != nil {
		s.logger.Error("Failed to rollback transaction", "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
