package usecase

import (
	"log/slog"

	"github.com/bibbank/lenderledger/internal/domain/port"
)

// Set holds every use case of the service, wired to one unit of work.
type Set struct {
	RegisterCreditor    *RegisterCreditorUseCase
	ResolveCreditor     *ResolveCreditorUseCase
	CreateClient        *CreateClientUseCase
	UpdateClient        *UpdateClientUseCase
	GetClient           *GetClientUseCase
	ListClients         *ListClientsUseCase
	DeleteClient        *DeleteClientUseCase
	PreviewSchedule     *PreviewScheduleUseCase
	CreateLoan          *CreateLoanUseCase
	GetLoan             *GetLoanUseCase
	UpdateLoanPrincipal *UpdateLoanPrincipalUseCase
	DeleteLoan          *DeleteLoanUseCase
	RegisterPayment     *RegisterPaymentUseCase
	AmortizeLoan        *AmortizeLoanUseCase
	AccrueOverdueFines  *AccrueOverdueFinesUseCase
	RecordProviderEvent *RecordProviderEventUseCase
	SetupAccounts       *SetupAccountsUseCase
	ListAccounts        *ListAccountsUseCase
	ListTransactions    *ListTransactionsUseCase
	ExportStatement     *ExportStatementUseCase
	Portfolio           *PortfolioUseCase
}

// NewSet wires every use case.
func NewSet(uow port.UnitOfWork, hasher port.PasswordHasher, renderer port.StatementRenderer, logger *slog.Logger) Set {
	payments := NewRegisterPaymentUseCase(uow, logger)
	return Set{
		RegisterCreditor:    NewRegisterCreditorUseCase(uow, hasher, logger),
		ResolveCreditor:     NewResolveCreditorUseCase(uow),
		CreateClient:        NewCreateClientUseCase(uow, logger),
		UpdateClient:        NewUpdateClientUseCase(uow),
		GetClient:           NewGetClientUseCase(uow),
		ListClients:         NewListClientsUseCase(uow),
		DeleteClient:        NewDeleteClientUseCase(uow, logger),
		PreviewSchedule:     NewPreviewScheduleUseCase(),
		CreateLoan:          NewCreateLoanUseCase(uow, logger),
		GetLoan:             NewGetLoanUseCase(uow),
		UpdateLoanPrincipal: NewUpdateLoanPrincipalUseCase(uow, logger),
		DeleteLoan:          NewDeleteLoanUseCase(uow),
		RegisterPayment:     payments,
		AmortizeLoan:        NewAmortizeLoanUseCase(uow, logger),
		AccrueOverdueFines:  NewAccrueOverdueFinesUseCase(uow, logger),
		RecordProviderEvent: NewRecordProviderEventUseCase(uow, payments, logger),
		SetupAccounts:       NewSetupAccountsUseCase(uow, logger),
		ListAccounts:        NewListAccountsUseCase(uow),
		ListTransactions:    NewListTransactionsUseCase(uow),
		ExportStatement:     NewExportStatementUseCase(uow, renderer),
		Portfolio:           NewPortfolioUseCase(uow),
	}
}
