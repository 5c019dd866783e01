// internal/repository/unit_of_work.go
package repository

import "context"

// UnitOfWork bounds the lifetime of one storage transaction and exposes
// exactly one repository instance bound to it. Commit is always explicit;
// closing a scope never commits implicitly.
//
// Callers are expected to `defer uow.Rollback()` immediately after Begin.
// Rollback after a successful Commit is a no-op, so the deferred call acts as
// the cleanup path for every abandoned or failed request.
type UnitOfWork interface {
	// Users returns the user repository bound to this unit of work's
	// transaction. Repositories from different units of work must not be
	// mixed within one logical operation.
	Users() UserRepository
	// Commit flushes pending work to durable storage. On failure it attempts
	// a best-effort rollback and returns an error wrapping util.ErrTransaction.
	Commit() error
	// Rollback discards pending work. Calling it after Commit returns nil.
	Rollback() error
}

// UnitOfWorkFactory begins new units of work. Each call leases one session
// from the underlying pool for the duration of the transaction.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
