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
)

// maxUniqueCodeAttempts bounds the retries when a generated code collides.
const maxUniqueCodeAttempts = 10

// RegisterCreditorUseCase signs a creditor up.
type RegisterCreditorUseCase struct {
	uow      port.UnitOfWork
	hasher   port.PasswordHasher
	logger   *slog.Logger
	codeFunc func() (string, error)
}

// NewRegisterCreditorUseCase wires dependencies.
func NewRegisterCreditorUseCase(uow port.UnitOfWork, hasher port.PasswordHasher, logger *slog.Logger) *RegisterCreditorUseCase {
	return &RegisterCreditorUseCase{
		uow:      uow,
		hasher:   hasher,
		logger:   logger,
		codeFunc: model.GenerateUniqueCode,
	}
}

// WithCodeGenerator replaces the unique code generator.
func (uc *RegisterCreditorUseCase) WithCodeGenerator(fn func() (string, error)) *RegisterCreditorUseCase {
	uc.codeFunc = fn
	return uc
}

// Execute registers the creditor with a freshly drawn unique code.
func (uc *RegisterCreditorUseCase) Execute(
	ctx context.Context,
	req dto.RegisterCreditorRequest,
) (dto.CreditorResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.CreditorResponse{}, err
	}

	hash, err := uc.hasher.Hash(req.Password)
	if err != nil {
		return dto.CreditorResponse{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	var resp dto.CreditorResponse
	err = uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		// 1. Email must be free.
		_, err := repos.Creditors.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
		switch {
		case err == nil:
			return apperror.New(apperror.KindConflict, "email %s is already registered", req.Email)
		case apperror.KindOf(err) != apperror.KindNotFound:
			return fmt.Errorf("find creditor by email: %w", err)
		}

		// 2. Draw codes until one is unused.
		code, err := uc.freeUniqueCode(ctx, repos.Creditors)
		if err != nil {
			return err
		}

		// 3. Persist.
		creditor, err := model.NewCreditor(model.CreditorParams{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			UniqueCode:   code,
			PixKey:       req.PixKey,
			City:         req.City,
			State:        strings.ToUpper(req.State),
		}, now)
		if err != nil {
			return fmt.Errorf("new creditor: %w", err)
		}
		if err := repos.Creditors.Create(ctx, creditor); err != nil {
			return fmt.Errorf("create creditor: %w", err)
		}
		resp = toCreditorResponse(creditor)
		return nil
	})
	if err != nil {
		return dto.CreditorResponse{}, err
	}

	uc.logger.Info("creditor registered", "creditor_id", resp.ID)
	return resp, nil
}

func (uc *RegisterCreditorUseCase) freeUniqueCode(ctx context.Context, creditors port.CreditorRepository) (string, error) {
	for attempt := 0; attempt < maxUniqueCodeAttempts; attempt++ {
		code, err := uc.codeFunc()
		if err != nil {
			return "", err
		}
		_, err = creditors.FindByUniqueCode(ctx, code)
		if apperror.KindOf(err) == apperror.KindNotFound {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("find creditor by code: %w", err)
		}
	}
	return "", apperror.New(apperror.KindConflict, "no free unique code after %d attempts", maxUniqueCodeAttempts)
}

// ResolveCreditorUseCase looks a creditor up by unique code.
type ResolveCreditorUseCase struct {
	uow port.UnitOfWork
}

// NewResolveCreditorUseCase wires dependencies.
func NewResolveCreditorUseCase(uow port.UnitOfWork) *ResolveCreditorUseCase {
	return &ResolveCreditorUseCase{uow: uow}
}

// Execute returns the creditor holding the code.
func (uc *ResolveCreditorUseCase) Execute(
	ctx context.Context,
	req dto.ResolveCreditorRequest,
) (dto.CreditorResponse, error) {
	req.UniqueCode = strings.ToUpper(strings.TrimSpace(req.UniqueCode))
	if err := dto.Validate(req); err != nil {
		return dto.CreditorResponse{}, err
	}

	var resp dto.CreditorResponse
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		c, err := repos.Creditors.FindByUniqueCode(ctx, req.UniqueCode)
		if err != nil {
			return fmt.Errorf("find creditor: %w", err)
		}
		resp = toCreditorResponse(c)
		return nil
	})
	if err != nil {
		return dto.CreditorResponse{}, err
	}
	return resp, nil
}
