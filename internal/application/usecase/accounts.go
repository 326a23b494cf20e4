package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/port"
)

// ---------------------------------------------------------------------------
// SetupAccountsUseCase
// ---------------------------------------------------------------------------

// SetupAccountsUseCase makes sure a creditor owns the named accounts.
// Names are matched case-insensitively, so running it twice is harmless.
type SetupAccountsUseCase struct {
	uow    port.UnitOfWork
	logger *slog.Logger
}

// NewSetupAccountsUseCase wires dependencies.
func NewSetupAccountsUseCase(uow port.UnitOfWork, logger *slog.Logger) *SetupAccountsUseCase {
	return &SetupAccountsUseCase{uow: uow, logger: logger}
}

// Execute creates the missing accounts and returns all of the caller's.
func (uc *SetupAccountsUseCase) Execute(ctx context.Context, req dto.SetupAccountsRequest) (dto.SetupAccountsResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.SetupAccountsResponse{}, err
	}

	now := time.Now().UTC()
	var resp dto.SetupAccountsResponse
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		existing, err := repos.Accounts.ListByCreditor(ctx, req.CreditorID)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		seen := make(map[string]bool, len(existing))
		for _, a := range existing {
			seen[accountKey(a.Name())] = true
		}

		accounts := existing
		created := 0
		for _, name := range req.Names {
			key := accountKey(name)
			if seen[key] {
				continue
			}
			acc, err := model.NewAccount(req.CreditorID, strings.TrimSpace(name), now)
			if err != nil {
				return fmt.Errorf("new account %q: %w", name, err)
			}
			if err := repos.Accounts.Save(ctx, acc); err != nil {
				return fmt.Errorf("save account: %w", err)
			}
			seen[key] = true
			accounts = append(accounts, acc)
			created++
		}

		resp = dto.SetupAccountsResponse{
			Accounts: make([]dto.AccountResponse, 0, len(accounts)),
			Created:  created,
		}
		for _, a := range accounts {
			resp.Accounts = append(resp.Accounts, toAccountResponse(a))
		}
		return nil
	})
	if err != nil {
		return dto.SetupAccountsResponse{}, err
	}
	if resp.Created > 0 {
		uc.logger.Info("accounts created", "creditor_id", req.CreditorID, "created", resp.Created)
	}
	return resp, nil
}

func accountKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ---------------------------------------------------------------------------
// ListAccountsUseCase
// ---------------------------------------------------------------------------

// ListAccountsUseCase lists a creditor's accounts.
type ListAccountsUseCase struct {
	uow port.UnitOfWork
}

// NewListAccountsUseCase wires dependencies.
func NewListAccountsUseCase(uow port.UnitOfWork) *ListAccountsUseCase {
	return &ListAccountsUseCase{uow: uow}
}

// Execute lists the accounts.
func (uc *ListAccountsUseCase) Execute(ctx context.Context, req dto.CreditorRequest) ([]dto.AccountResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	out := []dto.AccountResponse{}
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		accounts, err := repos.Accounts.ListByCreditor(ctx, req.CreditorID)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		for _, a := range accounts {
			out = append(out, toAccountResponse(a))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// ListTransactionsUseCase
// ---------------------------------------------------------------------------

// ListTransactionsUseCase returns an account with its transactions, newest
// first.
type ListTransactionsUseCase struct {
	uow port.UnitOfWork
}

// NewListTransactionsUseCase wires dependencies.
func NewListTransactionsUseCase(uow port.UnitOfWork) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{uow: uow}
}

// Execute lists the account's transactions.
func (uc *ListTransactionsUseCase) Execute(ctx context.Context, req dto.AccountRequest) (dto.TransactionListResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.TransactionListResponse{}, err
	}
	var resp dto.TransactionListResponse
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		acc, txs, err := loadStatement(ctx, repos, req)
		if err != nil {
			return err
		}
		resp.Account = toAccountResponse(acc)
		resp.Transactions = make([]dto.TransactionResponse, 0, len(txs))
		for _, t := range txs {
			resp.Transactions = append(resp.Transactions, toTransactionResponse(t))
		}
		return nil
	})
	if err != nil {
		return dto.TransactionListResponse{}, err
	}
	return resp, nil
}

func loadStatement(ctx context.Context, repos port.Repositories, req dto.AccountRequest) (model.Account, []model.Transaction, error) {
	acc, err := findOwnedAccount(ctx, repos, req.CreditorID, req.AccountID)
	if err != nil {
		return model.Account{}, nil, fmt.Errorf("find account: %w", err)
	}
	txs, err := repos.Transactions.ListByAccount(ctx, acc.ID())
	if err != nil {
		return model.Account{}, nil, fmt.Errorf("list transactions: %w", err)
	}
	return acc, txs, nil
}

// ---------------------------------------------------------------------------
// ExportStatementUseCase
// ---------------------------------------------------------------------------

// ExportStatementUseCase renders an account statement document.
type ExportStatementUseCase struct {
	uow      port.UnitOfWork
	renderer port.StatementRenderer
}

// NewExportStatementUseCase wires dependencies.
func NewExportStatementUseCase(uow port.UnitOfWork, renderer port.StatementRenderer) *ExportStatementUseCase {
	return &ExportStatementUseCase{uow: uow, renderer: renderer}
}

// Execute renders the statement.
func (uc *ExportStatementUseCase) Execute(ctx context.Context, req dto.AccountRequest) (dto.StatementResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.StatementResponse{}, err
	}
	var (
		acc model.Account
		txs []model.Transaction
	)
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		acc, txs, err = loadStatement(ctx, repos, req)
		return err
	})
	if err != nil {
		return dto.StatementResponse{}, err
	}

	content, err := uc.renderer.Render(acc, txs)
	if err != nil {
		return dto.StatementResponse{}, fmt.Errorf("render statement: %w", err)
	}
	return dto.StatementResponse{
		FileName:    statementFileName(acc.Name(), time.Now().UTC(), uc.renderer.FileExtension()),
		ContentType: uc.renderer.ContentType(),
		Content:     content,
	}, nil
}

func statementFileName(accountName string, at time.Time, ext string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, strings.TrimSpace(accountName))
	return fmt.Sprintf("statement-%s-%s.%s", slug, at.Format("20060102"), ext)
}
