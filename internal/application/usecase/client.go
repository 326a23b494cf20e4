package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
)

func clientParams(f dto.ClientFields) (model.ClientParams, error) {
	cpf, err := valueobject.NewCPF(f.CPF)
	if err != nil {
		return model.ClientParams{}, apperror.Wrap(apperror.KindValidation, err, "parse CPF")
	}
	var phone valueobject.Phone
	if strings.TrimSpace(f.WhatsApp) != "" {
		if phone, err = valueobject.NewPhone(f.WhatsApp, valueobject.DefaultPhoneRegion); err != nil {
			return model.ClientParams{}, apperror.Wrap(apperror.KindValidation, err, "parse WhatsApp number")
		}
	}
	return model.ClientParams{
		Name:         f.Name,
		CPF:          cpf,
		WhatsApp:     phone,
		Address:      f.Address,
		City:         f.City,
		State:        strings.ToUpper(f.State),
		Observations: f.Observations,
	}, nil
}

// ensureCPFFree fails with a conflict when another client of the creditor
// already holds cpf.
func ensureCPFFree(ctx context.Context, repos port.Repositories, creditorID, cpf, exceptID string) error {
	existing, err := repos.Clients.FindByCPF(ctx, creditorID, cpf)
	switch {
	case apperror.KindOf(err) == apperror.KindNotFound:
		return nil
	case err != nil:
		return fmt.Errorf("find client by CPF: %w", err)
	case existing.ID() == exceptID:
		return nil
	default:
		return apperror.New(apperror.KindConflict, "a client with CPF %s already exists", existing.CPF().Formatted())
	}
}

// ---------------------------------------------------------------------------
// CreateClientUseCase
// ---------------------------------------------------------------------------

// CreateClientUseCase registers a client.
type CreateClientUseCase struct {
	uow    port.UnitOfWork
	logger *slog.Logger
}

// NewCreateClientUseCase wires dependencies.
func NewCreateClientUseCase(uow port.UnitOfWork, logger *slog.Logger) *CreateClientUseCase {
	return &CreateClientUseCase{uow: uow, logger: logger}
}

// Execute creates the client.
func (uc *CreateClientUseCase) Execute(ctx context.Context, req dto.CreateClientRequest) (dto.ClientResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.ClientResponse{}, err
	}
	params, err := clientParams(req.ClientFields)
	if err != nil {
		return dto.ClientResponse{}, err
	}

	var resp dto.ClientResponse
	err = uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := ensureCPFFree(ctx, repos, req.CreditorID, params.CPF.String(), ""); err != nil {
			return err
		}
		client, err := model.NewClient(req.CreditorID, params, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("new client: %w", err)
		}
		if err := repos.Clients.Save(ctx, client); err != nil {
			return fmt.Errorf("save client: %w", err)
		}
		resp = toClientResponse(client)
		return nil
	})
	if err != nil {
		return dto.ClientResponse{}, err
	}
	uc.logger.Info("client created", "client_id", resp.ID)
	return resp, nil
}

// ---------------------------------------------------------------------------
// UpdateClientUseCase
// ---------------------------------------------------------------------------

// UpdateClientUseCase replaces a client's editable fields.
type UpdateClientUseCase struct {
	uow port.UnitOfWork
}

// NewUpdateClientUseCase wires dependencies.
func NewUpdateClientUseCase(uow port.UnitOfWork) *UpdateClientUseCase {
	return &UpdateClientUseCase{uow: uow}
}

// Execute updates the client.
func (uc *UpdateClientUseCase) Execute(ctx context.Context, req dto.UpdateClientRequest) (dto.ClientResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.ClientResponse{}, err
	}
	params, err := clientParams(req.ClientFields)
	if err != nil {
		return dto.ClientResponse{}, err
	}

	var resp dto.ClientResponse
	err = uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		client, err := findOwnedClient(ctx, repos, req.CreditorID, req.ClientID)
		if err != nil {
			return fmt.Errorf("find client: %w", err)
		}
		if err := ensureCPFFree(ctx, repos, req.CreditorID, params.CPF.String(), client.ID()); err != nil {
			return err
		}
		if client, err = client.Update(params, time.Now().UTC()); err != nil {
			return fmt.Errorf("update client: %w", err)
		}
		if err := repos.Clients.Save(ctx, client); err != nil {
			return fmt.Errorf("save client: %w", err)
		}
		resp = toClientResponse(client)
		return nil
	})
	if err != nil {
		return dto.ClientResponse{}, err
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// GetClientUseCase
// ---------------------------------------------------------------------------

// GetClientUseCase retrieves a client with its loans, by id or by CPF.
type GetClientUseCase struct {
	uow port.UnitOfWork
}

// NewGetClientUseCase wires dependencies.
func NewGetClientUseCase(uow port.UnitOfWork) *GetClientUseCase {
	return &GetClientUseCase{uow: uow}
}

// Execute returns the caller's client by id.
func (uc *GetClientUseCase) Execute(ctx context.Context, req dto.ClientRequest) (dto.ClientResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.ClientResponse{}, err
	}
	return uc.load(ctx, func(ctx context.Context, repos port.Repositories) (model.Client, error) {
		return findOwnedClient(ctx, repos, req.CreditorID, req.ClientID)
	})
}

// ExecuteByCPF returns the caller's client holding the CPF.
func (uc *GetClientUseCase) ExecuteByCPF(ctx context.Context, req dto.ClientByCPFRequest) (dto.ClientResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.ClientResponse{}, err
	}
	cpf, err := valueobject.NewCPF(req.CPF)
	if err != nil {
		return dto.ClientResponse{}, apperror.Wrap(apperror.KindValidation, err, "parse CPF")
	}
	return uc.load(ctx, func(ctx context.Context, repos port.Repositories) (model.Client, error) {
		return repos.Clients.FindByCPF(ctx, req.CreditorID, cpf.String())
	})
}

func (uc *GetClientUseCase) load(
	ctx context.Context,
	find func(context.Context, port.Repositories) (model.Client, error),
) (dto.ClientResponse, error) {
	var resp dto.ClientResponse
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		client, err := find(ctx, repos)
		if err != nil {
			return fmt.Errorf("find client: %w", err)
		}
		loans, err := repos.Loans.ListByClient(ctx, client.ID())
		if err != nil {
			return fmt.Errorf("list loans: %w", err)
		}
		resp = toClientResponse(client)
		for _, loan := range loans {
			insts, err := repos.Installments.ListByLoan(ctx, loan.ID())
			if err != nil {
				return fmt.Errorf("list installments: %w", err)
			}
			resp.Loans = append(resp.Loans, toLoanResponse(loan, insts))
		}
		return nil
	})
	if err != nil {
		return dto.ClientResponse{}, err
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// ListClientsUseCase
// ---------------------------------------------------------------------------

// ListClientsUseCase lists a creditor's clients, optionally only those with
// an Open loan.
type ListClientsUseCase struct {
	uow port.UnitOfWork
}

// NewListClientsUseCase wires dependencies.
func NewListClientsUseCase(uow port.UnitOfWork) *ListClientsUseCase {
	return &ListClientsUseCase{uow: uow}
}

// Execute lists the clients.
func (uc *ListClientsUseCase) Execute(ctx context.Context, req dto.ListClientsRequest) (dto.ClientListResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.ClientListResponse{}, err
	}

	resp := dto.ClientListResponse{Clients: []dto.ClientResponse{}}
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		clients, err := repos.Clients.ListByCreditor(ctx, req.CreditorID)
		if err != nil {
			return fmt.Errorf("list clients: %w", err)
		}
		active := map[string]bool{}
		if req.ActiveOnly {
			loans, err := repos.Loans.ListByCreditor(ctx, req.CreditorID)
			if err != nil {
				return fmt.Errorf("list loans: %w", err)
			}
			for _, l := range loans {
				if l.Status().Equal(valueobject.LoanStatusOpen) {
					active[l.ClientID()] = true
				}
			}
		}
		for _, c := range clients {
			if req.ActiveOnly && !active[c.ID()] {
				continue
			}
			resp.Clients = append(resp.Clients, toClientResponse(c))
		}
		return nil
	})
	if err != nil {
		return dto.ClientListResponse{}, err
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// DeleteClientUseCase
// ---------------------------------------------------------------------------

// DeleteClientUseCase removes a client, its loans and their installments in
// one unit of work.
type DeleteClientUseCase struct {
	uow    port.UnitOfWork
	logger *slog.Logger
}

// NewDeleteClientUseCase wires dependencies.
func NewDeleteClientUseCase(uow port.UnitOfWork, logger *slog.Logger) *DeleteClientUseCase {
	return &DeleteClientUseCase{uow: uow, logger: logger}
}

// Execute deletes the client and everything it owns.
func (uc *DeleteClientUseCase) Execute(ctx context.Context, req dto.ClientRequest) (dto.DeleteClientResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.DeleteClientResponse{}, err
	}

	resp := dto.DeleteClientResponse{ClientID: req.ClientID}
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		client, err := findOwnedClient(ctx, repos, req.CreditorID, req.ClientID)
		if err != nil {
			return fmt.Errorf("find client: %w", err)
		}
		loans, err := repos.Loans.ListByClient(ctx, client.ID())
		if err != nil {
			return fmt.Errorf("list loans: %w", err)
		}
		for _, loan := range loans {
			insts, err := repos.Installments.ListByLoan(ctx, loan.ID())
			if err != nil {
				return fmt.Errorf("list installments: %w", err)
			}
			if err := repos.Installments.DeleteByLoan(ctx, loan.ID()); err != nil {
				return fmt.Errorf("delete installments of %s: %w", loan.Code(), err)
			}
			if err := repos.Loans.Delete(ctx, loan.ID()); err != nil {
				return fmt.Errorf("delete loan %s: %w", loan.Code(), err)
			}
			resp.InstallmentsDeleted += len(insts)
			resp.LoansDeleted++
		}
		if err := repos.Clients.Delete(ctx, client.ID()); err != nil {
			return fmt.Errorf("delete client: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.DeleteClientResponse{}, err
	}
	uc.logger.Info("client deleted", "client_id", resp.ClientID, "loans", resp.LoansDeleted, "installments", resp.InstallmentsDeleted)
	return resp, nil
}
