package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/internal/domain/service"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
)

// AccrueOverdueFinesUseCase is the overdue batch: every late installment has
// its fine recomputed as of one reference date, in a single unit of work.
type AccrueOverdueFinesUseCase struct {
	uow    port.UnitOfWork
	logger *slog.Logger
}

// NewAccrueOverdueFinesUseCase wires dependencies.
func NewAccrueOverdueFinesUseCase(uow port.UnitOfWork, logger *slog.Logger) *AccrueOverdueFinesUseCase {
	return &AccrueOverdueFinesUseCase{uow: uow, logger: logger}
}

// Execute runs the batch. Re-running it for the same date without an
// intervening payment leaves every installment as the first run did.
func (uc *AccrueOverdueFinesUseCase) Execute(
	ctx context.Context,
	req dto.AccrueOverdueFinesRequest,
) (dto.AccrualResponse, error) {
	ctx, span := tracer.Start(ctx, "AccrueOverdueFines")
	defer span.End()

	now := time.Now().UTC()
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = now
	}
	asOf = valueobject.StartOfDay(asOf)

	var result service.AccrualResult
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		// 1. Lock every open installment due before asOf.
		rows, err := repos.Installments.ListAccrualCandidates(ctx, asOf)
		if err != nil {
			return fmt.Errorf("list accrual candidates: %w", err)
		}

		candidates := make([]service.AccrualCandidate, 0, len(rows))
		for _, r := range rows {
			if !r.LoanStatus.Equal(valueobject.LoanStatusOpen) {
				continue
			}
			candidates = append(candidates, service.AccrualCandidate{
				Installment:    r.Installment,
				CreditorID:     r.CreditorID,
				DailyFineValue: r.DailyFine,
			})
		}

		// 2. Recompute fines.
		result, err = service.AccrueOverdue(asOf, candidates, now)
		if err != nil {
			return fmt.Errorf("accrue: %w", err)
		}
		result.Skipped += len(rows) - len(candidates)

		// 3. Persist.
		if err := repos.Installments.SaveAll(ctx, result.Updated); err != nil {
			return fmt.Errorf("save installments: %w", err)
		}
		if err := storeEvents(ctx, repos.Outbox, result.Events...); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.AccrualResponse{}, err
	}

	span.SetAttributes(
		attribute.Int("updated_count", result.Fined),
		attribute.Int("changed_count", len(result.Updated)),
	)
	recordAccrued(ctx, len(result.Updated))
	uc.logger.Info("overdue fines accrued",
		"as_of", asOf.Format(time.DateOnly),
		"updated", result.Fined,
		"changed", len(result.Updated),
		"skipped", result.Skipped,
	)
	return dto.AccrualResponse{
		AsOf:         asOf,
		UpdatedCount: result.Fined,
		ChangedCount: len(result.Updated),
		SkippedCount: result.Skipped,
	}, nil
}
