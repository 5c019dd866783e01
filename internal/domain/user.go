// internal/domain/user.go
package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"userhub/internal/util"
)

const (
	// UsernameMinLength and UsernameMaxLength bound the accepted username size
	// after trimming.
	UsernameMinLength = 3
	UsernameMaxLength = 100
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// User represents a user account. The struct doubles as the sqlx row mapping
// and the JSON transfer representation returned across the API boundary.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`         // Normalized: lower-cased and trimmed. Unique.
	Username  string    `db:"username" json:"username"`   // Trimmed, 3-100 chars of [A-Za-z0-9_]. Unique.
	FullName  *string   `db:"full_name" json:"full_name"` // nil when absent.
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewUser validates and normalizes the inputs and returns a new User with a
// fresh ID, IsActive set to true and both timestamps set to the current time.
// It performs no I/O; the only failure modes are the two validation errors.
func NewUser(email, username string, fullName *string) (*User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Email:     normalizeEmail(email),
		Username:  strings.TrimSpace(username),
		FullName:  normalizeFullName(fullName),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update applies a partial update: nil fields are left untouched, present
// fields are revalidated, normalized and overwritten. UpdatedAt is advanced
// when at least one field is supplied, even if its value is unchanged.
func (u *User) Update(email, username, fullName *string) error {
	if email == nil && username == nil && fullName == nil {
		return nil
	}

	// Validation is done up front so a partial update never half-applies.
	if email != nil {
		if err := validateEmail(*email); err != nil {
			return err
		}
	}
	if username != nil {
		if err := validateUsername(*username); err != nil {
			return err
		}
	}

	if email != nil {
		u.Email = normalizeEmail(*email)
	}
	if username != nil {
		u.Username = strings.TrimSpace(*username)
	}
	if fullName != nil {
		u.FullName = normalizeFullName(fullName)
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Activate marks the user as active.
func (u *User) Activate() {
	u.IsActive = true
	u.UpdatedAt = time.Now().UTC()
}

// Deactivate marks the user as inactive. The row is retained; deactivated
// users still occupy their email and username.
func (u *User) Deactivate() {
	u.IsActive = false
	u.UpdatedAt = time.Now().UTC()
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return fmt.Errorf("%w: %q", util.ErrInvalidEmail, email)
	}
	return nil
}

func validateUsername(username string) error {
	trimmed := strings.TrimSpace(username)
	if len(trimmed) < UsernameMinLength {
		return fmt.Errorf("%w: must be at least %d characters long", util.ErrInvalidUsername, UsernameMinLength)
	}
	if len(trimmed) > UsernameMaxLength {
		return fmt.Errorf("%w: must be at most %d characters long", util.ErrInvalidUsername, UsernameMaxLength)
	}
	if !usernamePattern.MatchString(trimmed) {
		return fmt.Errorf("%w: can only contain letters, numbers, and underscores", util.ErrInvalidUsername)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeFullName trims the value; whitespace-only collapses to absent.
func normalizeFullName(fullName *string) *string {
	if fullName == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*fullName)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
