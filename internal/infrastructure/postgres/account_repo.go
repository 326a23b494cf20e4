package postgres

import (
	"context"
	"fmt"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	pgutil "github.com/bibbank/lenderledger/pkg/postgres"
)

const accountColumns = `id, creditor_id, name, balance, profit, created_at, updated_at`

// AccountRepo implements port.AccountRepository.
type AccountRepo struct {
	q pgutil.Querier
}

// NewAccountRepo creates an account repository over q.
func NewAccountRepo(q pgutil.Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

func (r *AccountRepo) Save(ctx context.Context, a model.Account) error {
	s := a.Snapshot()
	const query = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			balance    = EXCLUDED.balance,
			profit     = EXCLUDED.profit,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.q.Exec(ctx, query, s.ID, s.CreditorID, s.Name, s.Balance, s.Profit, s.CreatedAt, s.UpdatedAt)
	if pgutil.IsUniqueViolation(err, "accounts_creditor_name_key") {
		return apperror.New(apperror.KindConflict, "account %q already exists", s.Name)
	}
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (r *AccountRepo) FindByID(ctx context.Context, id string) (model.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// FindByIDForUpdate locks the account row until the transaction ends.
func (r *AccountRepo) FindByIDForUpdate(ctx context.Context, id string) (model.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

func (r *AccountRepo) ListByCreditor(ctx context.Context, creditorID string) ([]model.Account, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE creditor_id = $1 ORDER BY created_at, name`, creditorID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	return collect(rows, scanAccount)
}

func (r *AccountRepo) findOne(ctx context.Context, query, id string) (model.Account, error) {
	a, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return model.Account{}, notFoundOr(err, "account", id)
	}
	return a, nil
}

func scanAccount(row rowScanner) (model.Account, error) {
	var s model.AccountSnapshot
	if err := row.Scan(&s.ID, &s.CreditorID, &s.Name, &s.Balance, &s.Profit, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return model.Account{}, err
	}
	return model.ReconstructAccount(s), nil
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

const transactionColumns = `
	id, account_id, title, value, type, category, date, description, external_reference, created_at`

// TransactionRepo implements port.TransactionRepository.
type TransactionRepo struct {
	q pgutil.Querier
}

// NewTransactionRepo creates a transaction repository over q.
func NewTransactionRepo(q pgutil.Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Append inserts tx. The partial unique index on external_reference turns a
// reused reference into a duplicate_payment error.
func (r *TransactionRepo) Append(ctx context.Context, tx model.Transaction) error {
	s := tx.Snapshot()
	_, err := r.q.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		s.ID, s.AccountID, s.Title, s.Value, s.Type.String(), s.Category.String(),
		s.Date, s.Description, nullString(s.ExternalReference), s.CreatedAt,
	)
	if pgutil.IsUniqueViolation(err, "transactions_external_reference_key") {
		return apperror.New(apperror.KindDuplicatePayment, "external reference %s already registered", s.ExternalReference)
	}
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID string) ([]model.Transaction, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1
		ORDER BY date DESC, created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return collect(rows, scanTransaction)
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var (
		s           model.TransactionSnapshot
		txType, cat string
		reference   *string
	)
	if err := row.Scan(
		&s.ID, &s.AccountID, &s.Title, &s.Value, &txType, &cat,
		&s.Date, &s.Description, &reference, &s.CreatedAt,
	); err != nil {
		return model.Transaction{}, err
	}
	var err error
	if s.Type, err = valueobject.NewTransactionType(txType); err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", s.ID, err)
	}
	if s.Category, err = valueobject.NewTransactionCategory(cat); err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", s.ID, err)
	}
	s.ExternalReference = derefString(reference)
	return model.ReconstructTransaction(s), nil
}
