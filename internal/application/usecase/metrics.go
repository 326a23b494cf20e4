package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/bibbank/lenderledger/internal/application/usecase"

// Instruments are created against the global providers and start recording
// once observability.InitMetrics / InitTracer install the real ones.
var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	paymentsCounter, _ = meter.Int64Counter("ledger.payments",
		metric.WithDescription("Payments registered, by payment type"))
	amortizationsCounter, _ = meter.Int64Counter("ledger.amortizations",
		metric.WithDescription("Amortizations applied"))
	accruedCounter, _ = meter.Int64Counter("ledger.accrued_installments",
		metric.WithDescription("Installments whose late fine changed during accrual"))
	providerEventsCounter, _ = meter.Int64Counter("ledger.provider_events",
		metric.WithDescription("Payment-provider notifications recorded, by event type"))
)

func recordPayment(ctx context.Context, paymentType string) {
	paymentsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_type", paymentType)))
}

func recordAmortization(ctx context.Context) {
	amortizationsCounter.Add(ctx, 1)
}

func recordAccrued(ctx context.Context, n int) {
	if n > 0 {
		accruedCounter.Add(ctx, int64(n))
	}
}

func recordProviderEvent(ctx context.Context, eventType string) {
	providerEventsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}
