package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/port"
	pgutil "github.com/bibbank/lenderledger/pkg/postgres"
)

// UnitOfWork runs each Do call in one read-committed transaction.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork creates a PostgreSQL-backed unit of work.
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// Do implements port.UnitOfWork.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	err := pgutil.WithTransaction(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(ctx, Repositories(tx))
	})
	if errors.Is(err, pgutil.ErrCommit) {
		return apperror.Wrap(apperror.KindPersistence, err, "commit failed")
	}
	return err
}

// Repositories binds every repository to q, which is a pool or an open
// transaction.
func Repositories(q pgutil.Querier) port.Repositories {
	return port.Repositories{
		Loans:          NewLoanRepo(q),
		Installments:   NewInstallmentRepo(q),
		Accounts:       NewAccountRepo(q),
		Transactions:   NewTransactionRepo(q),
		Creditors:      NewCreditorRepo(q),
		Clients:        NewClientRepo(q),
		ProviderEvents: NewProviderEventRepo(q),
		Outbox:         NewOutboxRepo(q),
	}
}

var _ port.UnitOfWork = (*UnitOfWork)(nil)
