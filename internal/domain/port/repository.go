package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	"github.com/bibbank/lenderledger/pkg/events"
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------
//
// Finders return an *apperror.Error of kind not_found when nothing matches.
// The ForUpdate variants lock the row until the surrounding unit of work ends.

// LoanRepository persists and retrieves loans.
type LoanRepository interface {
	Save(ctx context.Context, loan model.Loan) error
	FindByID(ctx context.Context, id string) (model.Loan, error)
	FindByIDForUpdate(ctx context.Context, id string) (model.Loan, error)
	ListByCreditor(ctx context.Context, creditorID string) ([]model.Loan, error)
	ListByClient(ctx context.Context, clientID string) ([]model.Loan, error)
	Delete(ctx context.Context, id string) error
}

// InstallmentRepository persists and retrieves installments.
type InstallmentRepository interface {
	Save(ctx context.Context, inst model.Installment) error
	SaveAll(ctx context.Context, insts []model.Installment) error
	FindByID(ctx context.Context, id string) (model.Installment, error)
	FindByIDForUpdate(ctx context.Context, id string) (model.Installment, error)
	// ListByLoan returns the loan's installments ordered by due date then code.
	ListByLoan(ctx context.Context, loanID string) ([]model.Installment, error)
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteByLoan(ctx context.Context, loanID string) error
	// ListAccrualCandidates locks every Pending or Overdue installment due
	// before asOf, joined with its loan's fine terms.
	ListAccrualCandidates(ctx context.Context, asOf time.Time) ([]AccrualRow, error)
	// ListByCreditorAndStatus returns the creditor's installments in status
	// due within [from, to), ordered by due date. Zero bounds are open.
	ListByCreditorAndStatus(ctx context.Context, creditorID string, status valueobject.InstallmentStatus, from, to time.Time) ([]InstallmentView, error)
}

// AccountRepository persists and retrieves accounts.
type AccountRepository interface {
	Save(ctx context.Context, account model.Account) error
	FindByID(ctx context.Context, id string) (model.Account, error)
	FindByIDForUpdate(ctx context.Context, id string) (model.Account, error)
	ListByCreditor(ctx context.Context, creditorID string) ([]model.Account, error)
}

// TransactionRepository is the append-only transaction log.
type TransactionRepository interface {
	// Append fails with kind duplicate_payment when the transaction's
	// external reference was already used.
	Append(ctx context.Context, tx model.Transaction) error
	// ListByAccount returns the account's transactions, newest first.
	ListByAccount(ctx context.Context, accountID string) ([]model.Transaction, error)
}

// CreditorRepository persists and retrieves creditors.
type CreditorRepository interface {
	Create(ctx context.Context, c model.Creditor) error
	FindByID(ctx context.Context, id string) (model.Creditor, error)
	FindByUniqueCode(ctx context.Context, code string) (model.Creditor, error)
	FindByEmail(ctx context.Context, email string) (model.Creditor, error)
}

// ClientRepository persists and retrieves clients.
type ClientRepository interface {
	Save(ctx context.Context, c model.Client) error
	FindByID(ctx context.Context, id string) (model.Client, error)
	FindByCPF(ctx context.Context, creditorID, cpf string) (model.Client, error)
	ListByCreditor(ctx context.Context, creditorID string) ([]model.Client, error)
	Delete(ctx context.Context, id string) error
}

// ProviderEventRepository stores payment-provider notifications.
type ProviderEventRepository interface {
	// Save fails with kind duplicate_payment when an event of the same type
	// and external reference was already stored.
	Save(ctx context.Context, e model.ProviderEvent) error
}

// ---------------------------------------------------------------------------
// Read models
// ---------------------------------------------------------------------------

// AccrualRow is a late installment with the loan terms that drive its fine.
type AccrualRow struct {
	Installment model.Installment
	CreditorID  string
	LoanStatus  valueobject.LoanStatus
	DailyFine   decimal.NullDecimal
}

// InstallmentView is an installment listed with its loan and client.
type InstallmentView struct {
	Installment    model.Installment
	LoanCode       string
	LoanTitle      string
	ClientID       string
	ClientName     string
	ClientWhatsApp string
}

// ---------------------------------------------------------------------------
// Unit of work
// ---------------------------------------------------------------------------

// Repositories is the set of repositories bound to one unit of work.
type Repositories struct {
	Loans          LoanRepository
	Installments   InstallmentRepository
	Accounts       AccountRepository
	Transactions   TransactionRepository
	Creditors      CreditorRepository
	Clients        ClientRepository
	ProviderEvents ProviderEventRepository
	Outbox         events.OutboxRepository
}

// UnitOfWork runs fn atomically. Every write made through repos commits
// together or not at all; a commit failure is reported as kind persistence.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// ---------------------------------------------------------------------------
// Other driven ports
// ---------------------------------------------------------------------------

// PasswordHasher hashes and verifies creditor passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// StatementRenderer renders an account statement document.
type StatementRenderer interface {
	Render(account model.Account, txs []model.Transaction) ([]byte, error)
	ContentType() string
	FileExtension() string
}
