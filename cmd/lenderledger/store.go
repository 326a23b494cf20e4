package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/internal/infrastructure/config"
	"github.com/bibbank/lenderledger/internal/infrastructure/memory"
	"github.com/bibbank/lenderledger/internal/infrastructure/postgres"
	"github.com/bibbank/lenderledger/internal/presentation/rest"
	"github.com/bibbank/lenderledger/pkg/events"
	pgutil "github.com/bibbank/lenderledger/pkg/postgres"
)

// store is the persistence backend selected by STORE.
type store struct {
	uow       port.UnitOfWork
	outbox    events.OutboxRepository
	readiness map[string]rest.ReadinessCheck
	close     func()
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using the in-memory store; data is lost on exit")
		mem := memory.NewStore()
		return &store{uow: mem, outbox: mem.Outbox(), close: func() {}}, nil
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgutil.NewPool(dbCtx, cfg.DB.Postgres(cfg.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return &store{
		uow:    postgres.NewUnitOfWork(pool),
		outbox: postgres.NewOutboxRepo(pool),
		readiness: map[string]rest.ReadinessCheck{
			"postgres": func(ctx context.Context) error { return pgutil.HealthCheck(ctx, pool) },
		},
		close: pool.Close,
	}, nil
}
