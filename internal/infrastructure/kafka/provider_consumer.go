package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
	pkgkafka "github.com/bibbank/lenderledger/pkg/kafka"
)

// ProviderEventRecorder records one raw provider notification.
type ProviderEventRecorder interface {
	Execute(ctx context.Context, payload []byte) (dto.ProviderEventResponse, error)
}

// ProviderEventHandler returns the consumer handler for the provider topic.
// Notifications that can never apply are returned as poison so the consumer
// commits past them; anything else is left uncommitted for redelivery.
func ProviderEventHandler(recorder ProviderEventRecorder, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		resp, err := recorder.Execute(ctx, msg.Value)
		if err != nil {
			if permanent(err) {
				return fmt.Errorf("%w: %w", pkgkafka.ErrPoison, err)
			}
			return err
		}
		logger.Info("provider event consumed",
			"event_id", resp.EventID,
			"event_type", resp.EventType,
			"external_reference", resp.ExternalReference,
			"duplicate", resp.Duplicate,
			"settled", resp.Payment != nil,
		)
		return nil
	}
}

func permanent(err error) bool {
	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindNotFound, apperror.KindInvalidState:
		return true
	}
	return false
}
