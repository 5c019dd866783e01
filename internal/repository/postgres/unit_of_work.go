// internal/repository/postgres/unit_of_work.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"userhub/internal/repository"
	"userhub/internal/util"
)

// TxBeginner defines the interface for beginning transactions.
// *sqlx.DB implements this.
type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// UnitOfWorkFactory begins sqlx-backed units of work against one database.
type UnitOfWorkFactory struct {
	db     TxBeginner
	logger *slog.Logger
}

// NewUnitOfWorkFactory creates a factory bound to the given database handle.
func NewUnitOfWorkFactory(db TxBeginner, logger *slog.Logger) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db, logger: logger}
}

// Begin starts a transaction and returns a unit of work whose repository is
// bound to it.
func (f *UnitOfWorkFactory) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	tx, err := f.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", util.ErrTransaction, err)
	}
	return &UnitOfWork{
		tx:     tx,
		users:  NewUserRepository(tx),
		logger: f.logger,
	}, nil
}

// UnitOfWork is an sqlx transaction with exactly one user repository bound to
// it. Within the transaction, operations execute in the order issued.
type UnitOfWork struct {
	tx     *sqlx.Tx
	users  *UserRepository
	logger *slog.Logger
}

// Users returns the repository bound to this unit of work's transaction.
func (u *UnitOfWork) Users() repository.UserRepository {
	return u.users
}

// Commit commits the transaction. On failure it attempts a rollback so the
// session is not left holding locks; a secondary rollback error is logged and
// swallowed so the commit failure is what the caller observes.
func (u *UnitOfWork) Commit() error {
	if err := u.tx.Commit(); err != nil {
		if rbErr := u.tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			u.logger.Error("Rollback after failed commit also failed", "error", rbErr)
		}
		return fmt.Errorf("%w: failed to commit transaction: %v", util.ErrTransaction, err)
	}
	return nil
}

// Rollback rolls back the transaction. It is safe to defer right after Begin:
// once the transaction has been committed or rolled back, the call returns
// nil, so the deferred cleanup never masks the request's outcome.
func (u *UnitOfWork) Rollback() error {
	if err := u.tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return nil
		}
		return fmt.Errorf("%w: failed to rollback transaction: %v", util.ErrTransaction, err)
	}
	return nil
}

var _ repository.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
var _ repository.UnitOfWork = (*UnitOfWork)(nil)
