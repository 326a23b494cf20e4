package postgres

import (
	"context"
	"fmt"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	pgutil "github.com/bibbank/lenderledger/pkg/postgres"
)

// ProviderEventRepo implements port.ProviderEventRepository.
type ProviderEventRepo struct {
	q pgutil.Querier
}

// NewProviderEventRepo creates a provider event repository over q.
func NewProviderEventRepo(q pgutil.Querier) *ProviderEventRepo {
	return &ProviderEventRepo{q: q}
}

func (r *ProviderEventRepo) Save(ctx context.Context, e model.ProviderEvent) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO provider_events (id, event_type, external_reference, payload, received_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.EventType, e.ExternalReference, e.Payload, e.ReceivedAt,
	)
	if pgutil.IsUniqueViolation(err, "provider_events_type_reference_key") {
		return apperror.New(apperror.KindDuplicatePayment, "%s for %s already recorded", e.EventType, e.ExternalReference)
	}
	if err != nil {
		return fmt.Errorf("save provider event: %w", err)
	}
	return nil
}
