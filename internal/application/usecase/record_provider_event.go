package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/port"
)

// RecordProviderEventUseCase stores a payment-provider notification and,
// when the charge names an installment, registers the payment in the same
// unit of work.
type RecordProviderEventUseCase struct {
	uow      port.UnitOfWork
	payments *RegisterPaymentUseCase
	logger   *slog.Logger
}

// NewRecordProviderEventUseCase wires dependencies.
func NewRecordProviderEventUseCase(
	uow port.UnitOfWork,
	payments *RegisterPaymentUseCase,
	logger *slog.Logger,
) *RecordProviderEventUseCase {
	return &RecordProviderEventUseCase{uow: uow, payments: payments, logger: logger}
}

// Execute handles one raw notification payload. Redelivered charges are
// acknowledged with Duplicate set instead of failing.
func (uc *RecordProviderEventUseCase) Execute(ctx context.Context, payload []byte) (dto.ProviderEventResponse, error) {
	ctx, span := tracer.Start(ctx, "RecordProviderEvent")
	defer span.End()

	n, err := model.ParseProviderNotification(payload)
	if err != nil {
		return dto.ProviderEventResponse{}, err
	}
	now := time.Now().UTC()
	evt, err := model.NewProviderEvent(n, payload, now)
	if err != nil {
		return dto.ProviderEventResponse{}, err
	}
	charge := n.Charge()

	resp := dto.ProviderEventResponse{
		EventID:           evt.ID,
		EventType:         evt.EventType,
		ExternalReference: evt.ExternalReference,
	}

	var payReq dto.RegisterPaymentRequest
	settles := charge.SettlesInstallment()
	if settles {
		payReq = dto.RegisterPaymentRequest{
			CreditorID:        charge.CreditorID,
			InstallmentID:     charge.InstallmentID,
			AccountID:         charge.AccountID,
			AmountPaid:        charge.Amount,
			PaymentDate:       now,
			ExternalReference: charge.Reference,
		}
		if err := dto.Validate(payReq); err != nil {
			return dto.ProviderEventResponse{}, err
		}
	}

	err = uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := repos.ProviderEvents.Save(ctx, evt); err != nil {
			return fmt.Errorf("save provider event: %w", err)
		}
		if !settles {
			return nil
		}
		payment, err := uc.payments.register(ctx, repos, payReq, now, now)
		if err != nil {
			return err
		}
		resp.Payment = &payment
		return nil
	})
	switch {
	case apperror.KindOf(err) == apperror.KindDuplicatePayment:
		resp.Payment = nil
		resp.Duplicate = true
	case err != nil:
		span.RecordError(err)
		return dto.ProviderEventResponse{}, err
	}

	span.SetAttributes(
		attribute.String("event_type", resp.EventType),
		attribute.Bool("duplicate", resp.Duplicate),
	)
	recordProviderEvent(ctx, resp.EventType)
	if resp.Payment != nil {
		recordPayment(ctx, resp.Payment.PaymentType)
	}
	uc.logger.Info("provider event recorded",
		"event_type", resp.EventType,
		"reference", resp.ExternalReference,
		"settled_installment", resp.Payment != nil,
		"duplicate", resp.Duplicate,
	)
	return resp, nil
}
