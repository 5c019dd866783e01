// internal/util/errors.go
package util

import "errors"

// Common application-specific errors. This set is closed: every error the
// service layer returns wraps exactly one of these sentinels, so callers can
// classify failures with errors.Is without inspecting driver details.
var (
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidUsername = errors.New("invalid username")
	ErrAlreadyExists   = errors.New("user already exists")
	ErrNotFound        = errors.New("user not found")
	ErrInvalidInput    = errors.New("invalid input provided")
	ErrStorage         = errors.New("storage failure")
	ErrTransaction     = errors.New("transaction failure")
)

// IsError reports whether err wraps the given sentinel.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
