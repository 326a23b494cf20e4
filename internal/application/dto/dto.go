package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money fields marshal as decimal strings ("180.00"), never floats.
// CreditorID is always taken from the authenticated caller, never the body.

// ---------------------------------------------------------------------------
// Creditors
// ---------------------------------------------------------------------------

// RegisterCreditorRequest carries the sign-up form of a creditor.
type RegisterCreditorRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	PixKey   string `json:"pix_key" validate:"max=140"`
	City     string `json:"city" validate:"max=120"`
	State    string `json:"state" validate:"omitempty,len=2"`
}

// ResolveCreditorRequest looks a creditor up by its unique code.
type ResolveCreditorRequest struct {
	UniqueCode string `json:"unique_code" validate:"required,len=8,alphanum"`
}

// CreditorResponse is the external representation of a creditor.
type CreditorResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	UniqueCode string    `json:"unique_code"`
	PixKey     string    `json:"pix_key"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
}

// ---------------------------------------------------------------------------
// Clients
// ---------------------------------------------------------------------------

// ClientFields are the editable fields of a client.
type ClientFields struct {
	Name         string `json:"name" validate:"required,max=200"`
	CPF          string `json:"cpf" validate:"required"`
	WhatsApp     string `json:"whatsapp"`
	Address      string `json:"address" validate:"max=300"`
	City         string `json:"city" validate:"max=120"`
	State        string `json:"state" validate:"omitempty,len=2"`
	Observations string `json:"observations" validate:"max=2000"`
}

// CreateClientRequest registers a client.
type CreateClientRequest struct {
	CreditorID string `json:"-" validate:"required"`
	ClientFields
}

// UpdateClientRequest replaces a client's editable fields.
type UpdateClientRequest struct {
	CreditorID string `json:"-" validate:"required"`
	ClientID   string `json:"-" validate:"required"`
	ClientFields
}

// ClientRequest identifies one client of the caller.
type ClientRequest struct {
	CreditorID string `json:"-" validate:"required"`
	ClientID   string `json:"client_id" validate:"required"`
}

// ClientByCPFRequest identifies a client of the caller by CPF.
type ClientByCPFRequest struct {
	CreditorID string `json:"-" validate:"required"`
	CPF        string `json:"cpf" validate:"required"`
}

// ListClientsRequest lists the caller's clients.
type ListClientsRequest struct {
	CreditorID string `json:"-" validate:"required"`
	// ActiveOnly keeps clients with at least one Open loan.
	ActiveOnly bool `json:"active_only"`
}

// ClientResponse is the external representation of a client.
type ClientResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	CPF          string         `json:"cpf"`
	WhatsApp     string         `json:"whatsapp,omitempty"`
	Address      string         `json:"address,omitempty"`
	City         string         `json:"city,omitempty"`
	State        string         `json:"state,omitempty"`
	Observations string         `json:"observations,omitempty"`
	Loans        []LoanResponse `json:"loans,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ClientListResponse wraps a list of clients.
type ClientListResponse struct {
	Clients []ClientResponse `json:"clients"`
}

// DeleteClientResponse reports what a client deletion removed.
type DeleteClientResponse struct {
	ClientID            string `json:"client_id"`
	LoansDeleted        int    `json:"loans_deleted"`
	InstallmentsDeleted int    `json:"installments_deleted"`
}

// ---------------------------------------------------------------------------
// Loans
// ---------------------------------------------------------------------------

// ExplicitInstallment is a caller-supplied installment used instead of a
// generated schedule.
type ExplicitInstallment struct {
	Code     string          `json:"code"`
	DueValue decimal.Decimal `json:"due_value" validate:"cents"`
	DueDate  time.Time       `json:"due_date" validate:"required"`
}

// CreateLoanRequest books a loan and its schedule.
type CreateLoanRequest struct {
	CreditorID           string              `json:"-" validate:"required"`
	ClientID             string              `json:"client_id" validate:"required"`
	Code                 string              `json:"code" validate:"required,max=64"`
	Title                string              `json:"title" validate:"required,max=200"`
	LoanedValue          decimal.Decimal     `json:"loaned_value" validate:"cents"`
	InterestRate         decimal.NullDecimal `json:"interest_rate"`
	InterestModel        string              `json:"interest_model" validate:"required"`
	InstallmentsQuantity int                 `json:"installments_quantity" validate:"required,gt=0,lte=600"`
	RecurrencePeriod     string              `json:"recurrence_period" validate:"required"`
	DailyFineValue       decimal.NullDecimal `json:"daily_fine_value" validate:"omitempty,cents"`
	LoanDate             time.Time           `json:"loan_date"`
	FirstDueDate         time.Time           `json:"first_due_date" validate:"required"`
	Description          string              `json:"description" validate:"max=2000"`
	// Installments, when present, replaces the generated schedule and must
	// hold exactly InstallmentsQuantity entries.
	Installments []ExplicitInstallment `json:"installments" validate:"omitempty,dive"`
}

// PreviewScheduleRequest asks for the schedule a loan with these terms would
// get, without booking anything.
type PreviewScheduleRequest struct {
	Code                 string              `json:"code" validate:"max=64"`
	Principal            decimal.Decimal     `json:"principal" validate:"cents"`
	InterestRate         decimal.NullDecimal `json:"interest_rate"`
	InterestModel        string              `json:"interest_model" validate:"required"`
	InstallmentsQuantity int                 `json:"installments_quantity" validate:"required,gt=0,lte=600"`
	RecurrencePeriod     string              `json:"recurrence_period" validate:"required"`
	FirstDueDate         time.Time           `json:"first_due_date" validate:"required"`
}

// ScheduleResponse lists previewed installments and their sum.
type ScheduleResponse struct {
	Installments []InstallmentResponse `json:"installments"`
	Total        decimal.Decimal       `json:"total"`
}

// LoanRequest identifies one loan of the caller.
type LoanRequest struct {
	CreditorID string `json:"-" validate:"required"`
	LoanID     string `json:"loan_id" validate:"required"`
}

// UpdateLoanRequest edits a loan. A new loaned value regenerates the pending
// schedule; a title alone does not.
type UpdateLoanRequest struct {
	CreditorID  string              `json:"-" validate:"required"`
	LoanID      string              `json:"-" validate:"required"`
	Title       string              `json:"title" validate:"max=200"`
	LoanedValue decimal.NullDecimal `json:"loaned_value" validate:"omitempty,cents"`
}

// InstallmentResponse is the external representation of an installment.
type InstallmentResponse struct {
	ID               string              `json:"id"`
	LoanID           string              `json:"loan_id"`
	Code             string              `json:"code"`
	DueValue         decimal.Decimal     `json:"due_value"`
	OriginalDueValue decimal.NullDecimal `json:"original_due_value"`
	PaidValue        decimal.Decimal     `json:"paid_value"`
	Status           string              `json:"status"`
	DueDate          time.Time           `json:"due_date"`
	DaysLate         int                 `json:"days_late"`
	TotalFine        decimal.Decimal     `json:"total_fine"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
}

// LoanResponse is the external representation of a loan.
type LoanResponse struct {
	ID                   string                `json:"id"`
	ClientID             string                `json:"client_id"`
	Code                 string                `json:"code"`
	Title                string                `json:"title"`
	LoanedValue          decimal.Decimal       `json:"loaned_value"`
	LoanBalance          decimal.Decimal       `json:"loan_balance"`
	InterestRate         decimal.NullDecimal   `json:"interest_rate"`
	InterestModel        string                `json:"interest_model"`
	InstallmentsQuantity int                   `json:"installments_quantity"`
	RecurrencePeriod     string                `json:"recurrence_period"`
	DailyFineValue       decimal.NullDecimal   `json:"daily_fine_value"`
	Status               string                `json:"status"`
	LoanDate             time.Time             `json:"loan_date"`
	Description          string                `json:"description,omitempty"`
	Installments         []InstallmentResponse `json:"installments,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// DeleteLoanResponse reports what a loan deletion removed.
type DeleteLoanResponse struct {
	LoanID              string `json:"loan_id"`
	InstallmentsDeleted int    `json:"installments_deleted"`
}

// ---------------------------------------------------------------------------
// Payments and amortization
// ---------------------------------------------------------------------------

// RegisterPaymentRequest applies cash to one installment.
type RegisterPaymentRequest struct {
	CreditorID    string          `json:"-" validate:"required"`
	InstallmentID string          `json:"installment_id" validate:"required"`
	AccountID     string          `json:"account_id" validate:"required"`
	AmountPaid    decimal.Decimal `json:"amount_paid" validate:"cents"`
	PaymentDate   time.Time       `json:"payment_date"`
	// ExternalReference correlates the payment with a provider charge. A
	// reference can only be registered once.
	ExternalReference string `json:"external_reference" validate:"max=128"`
}

// PaymentResponse summarises a registered payment.
type PaymentResponse struct {
	PaymentType            string              `json:"payment_type"`
	InstallmentID          string              `json:"installment_id"`
	AmountPaid             decimal.Decimal     `json:"amount_paid"`
	Shortfall              decimal.Decimal     `json:"shortfall"`
	DilutedCount           int                 `json:"diluted_count"`
	NewInstallmentValue    decimal.NullDecimal `json:"new_installment_value"`
	RemainderInstallmentID string              `json:"remainder_installment_id,omitempty"`
	LoanID                 string              `json:"loan_id"`
	LoanBalance            decimal.Decimal     `json:"loan_balance"`
	LoanStatus             string              `json:"loan_status"`
	TransactionID          string              `json:"transaction_id"`
	AccountBalance         decimal.Decimal     `json:"account_balance"`
	ClientName             string              `json:"client_name"`
	ClientWhatsApp         string              `json:"client_whatsapp,omitempty"`
	CreditorPixKey         string              `json:"creditor_pix_key,omitempty"`
}

// AmortizeLoanRequest pays principal ahead of schedule.
type AmortizeLoanRequest struct {
	CreditorID  string          `json:"-" validate:"required"`
	LoanID      string          `json:"-" validate:"required"`
	AccountID   string          `json:"account_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"cents"`
	PaymentDate time.Time       `json:"payment_date"`
}

// AmortizationResponse summarises an amortization.
type AmortizationResponse struct {
	LoanID         string                `json:"loan_id"`
	AmountPaid     decimal.Decimal       `json:"amount_paid"`
	NewLoanedValue decimal.Decimal       `json:"new_loaned_value"`
	LoanBalance    decimal.Decimal       `json:"loan_balance"`
	LoanStatus     string                `json:"loan_status"`
	PerInstallment decimal.Decimal       `json:"per_installment"`
	Installments   []InstallmentResponse `json:"installments"`
	TransactionID  string                `json:"transaction_id"`
	AccountBalance decimal.Decimal       `json:"account_balance"`
}

// AccrueOverdueFinesRequest runs the accrual batch. A zero AsOf means today.
type AccrueOverdueFinesRequest struct {
	AsOf time.Time `json:"as_of"`
}

// AccrualResponse reports an accrual run. UpdatedCount is every installment
// carrying a fine as of AsOf; ChangedCount is the subset this run rewrote, so a
// same-day re-run reports the same UpdatedCount with ChangedCount zero.
type AccrualResponse struct {
	AsOf         time.Time `json:"as_of"`
	UpdatedCount int       `json:"updated_count"`
	ChangedCount int       `json:"changed_count"`
	SkippedCount int       `json:"skipped_count"`
}

// ---------------------------------------------------------------------------
// Accounts and transactions
// ---------------------------------------------------------------------------

// SetupAccountsRequest ensures the named accounts exist.
type SetupAccountsRequest struct {
	CreditorID string   `json:"-" validate:"required"`
	Names      []string `json:"names" validate:"required,min=1,max=20,dive,required,max=120"`
}

// AccountResponse is the external representation of an account.
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Profit    decimal.Decimal `json:"profit"`
	CreatedAt time.Time       `json:"created_at"`
}

// SetupAccountsResponse lists the caller's accounts after setup.
type SetupAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Created  int               `json:"created"`
}

// AccountRequest identifies one account of the caller.
type AccountRequest struct {
	CreditorID string `json:"-" validate:"required"`
	AccountID  string `json:"account_id" validate:"required"`
}

// TransactionResponse is the external representation of a transaction.
type TransactionResponse struct {
	ID                string          `json:"id"`
	AccountID         string          `json:"account_id"`
	Title             string          `json:"title"`
	Value             decimal.Decimal `json:"value"`
	Type              string          `json:"type"`
	Category          string          `json:"category"`
	Date              time.Time       `json:"date"`
	Description       string          `json:"description,omitempty"`
	ExternalReference string          `json:"external_reference,omitempty"`
}

// TransactionListResponse wraps an account's transactions.
type TransactionListResponse struct {
	Account      AccountResponse       `json:"account"`
	Transactions []TransactionResponse `json:"transactions"`
}

// StatementResponse is a rendered account statement.
type StatementResponse struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// ---------------------------------------------------------------------------
// Portfolio views
// ---------------------------------------------------------------------------

// CreditorRequest scopes a read to the caller.
type CreditorRequest struct {
	CreditorID string `json:"-" validate:"required"`
}

// DueInstallmentsRequest lists Pending installments due on AsOf or seven
// days after it. A zero AsOf means today.
type DueInstallmentsRequest struct {
	CreditorID string    `json:"-" validate:"required"`
	AsOf       time.Time `json:"as_of"`
}

// PortfolioSummaryResponse aggregates the caller's book.
type PortfolioSummaryResponse struct {
	TotalLoaned         decimal.Decimal `json:"total_loaned"`
	OpenBalance         decimal.Decimal `json:"open_balance"`
	OpenLoans           int             `json:"open_loans"`
	SettledLoans        int             `json:"settled_loans"`
	ActiveClients       int             `json:"active_clients"`
	OverdueInstallments int             `json:"overdue_installments"`
	OverdueAmount       decimal.Decimal `json:"overdue_amount"`
}

// InstallmentViewResponse is an installment listed with its loan and client.
type InstallmentViewResponse struct {
	InstallmentResponse
	LoanCode       string `json:"loan_code"`
	LoanTitle      string `json:"loan_title"`
	ClientID       string `json:"client_id"`
	ClientName     string `json:"client_name"`
	ClientWhatsApp string `json:"client_whatsapp,omitempty"`
}

// InstallmentListResponse wraps an installment listing.
type InstallmentListResponse struct {
	Installments   []InstallmentViewResponse `json:"installments"`
	CreditorPixKey string                    `json:"creditor_pix_key,omitempty"`
}

// ---------------------------------------------------------------------------
// Provider notifications
// ---------------------------------------------------------------------------

// ProviderEventResponse reports how a provider notification was handled.
type ProviderEventResponse struct {
	EventID           string           `json:"event_id"`
	EventType         string           `json:"event_type"`
	ExternalReference string           `json:"external_reference"`
	Payment           *PaymentResponse `json:"payment,omitempty"`
	// Duplicate is true when the charge had already been registered.
	Duplicate bool `json:"duplicate"`
}
