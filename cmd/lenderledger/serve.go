package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/bibbank/lenderledger/internal/application/usecase"
	"github.com/bibbank/lenderledger/internal/infrastructure/config"
	"github.com/bibbank/lenderledger/internal/infrastructure/export"
	"github.com/bibbank/lenderledger/internal/infrastructure/kafka"
	"github.com/bibbank/lenderledger/internal/infrastructure/postgres"
	"github.com/bibbank/lenderledger/internal/infrastructure/scheduler"
	"github.com/bibbank/lenderledger/internal/infrastructure/security"
	ledgergrpc "github.com/bibbank/lenderledger/internal/presentation/grpc"
	"github.com/bibbank/lenderledger/internal/presentation/rest"
	"github.com/bibbank/lenderledger/pkg/auth"
	pkgkafka "github.com/bibbank/lenderledger/pkg/kafka"
	"github.com/bibbank/lenderledger/pkg/observability"
)

func serveCmd(setup setupFunc) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC and HTTP APIs, the outbox relay, the provider consumer and the accrual scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := setup()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg, logger, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending schema migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger, migrate bool) error {
	logger.Info("starting lenderledger",
		"version", version,
		"store", cfg.Store,
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }() //nolint:errcheck
		}
	}
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return err
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck

	if migrate && cfg.Store == config.StorePostgres {
		if err := postgres.NewMigrator(cfg.DB.Postgres(cfg.ServiceName).DSN()).Up(); err != nil {
			return err
		}
		logger.Info("schema migrations applied")
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:       cfg.Auth.JWTSecret,
		PublicKeyPEM: cfg.Auth.JWTPublicKey,
		Issuer:       cfg.Auth.Issuer,
	})
	if err != nil {
		return fmt.Errorf("init JWT validation: %w", err)
	}

	uc := usecase.NewSet(st.uow, security.NewBcryptHasher(0), export.NewXLSXRenderer(), logger)

	grpcServer, err := ledgergrpc.NewServer(ledgergrpc.NewLedgerHandler(uc, logger), jwtService, ledgergrpc.Options{
		TLSCertFile: cfg.GRPC.TLSCertFile,
		TLSKeyFile:  cfg.GRPC.TLSKeyFile,
		Reflection:  cfg.GRPC.Reflection,
	}, logger)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: rest.NewRouter(rest.RouterConfig{
			UseCases:    uc,
			JWT:         jwtService,
			Metrics:     metricsHandler,
			Readiness:   st.readiness,
			CORSOrigins: cfg.CORSOrigins,
			Logger:      logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 5)
	background, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	go func() {
		if err := grpcServer.ListenAndServe(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server: %w", err)
		}
	}()
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	if cfg.Kafka.Enabled() {
		kcfg := cfg.Kafka.Client()
		producer, err := pkgkafka.NewProducer(kcfg)
		if err != nil {
			return err
		}
		defer producer.Close()

		relay := kafka.NewOutboxRelay(st.outbox, producer, cfg.Kafka.EventsTopic, cfg.OutboxPollInterval, logger)
		go func() { _ = relay.Run(background) }() //nolint:errcheck

		consumer, err := pkgkafka.NewConsumer(kcfg, cfg.Kafka.ProviderTopic,
			kafka.ProviderEventHandler(uc.RecordProviderEvent, logger), logger)
		if err != nil {
			return err
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Start(background); err != nil {
				errCh <- fmt.Errorf("provider consumer: %w", err)
			}
		}()
	} else {
		logger.Warn("KAFKA_BROKERS not set; outbox relay and provider consumer disabled")
	}

	if cfg.Accrual.Schedule != "" {
		sched, closeLocker, err := accrualScheduler(cfg, uc.AccrueOverdueFines, logger)
		if err != nil {
			return err
		}
		defer closeLocker()
		go func() { _ = sched.Run(background) }() //nolint:errcheck
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("component failed", "error", err)
	}

	stopBackground()
	grpcServer.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", "error", err)
	}
	logger.Info("lenderledger stopped")
	return nil
}

// accrualLocker returns a Redis-backed lock when REDIS_ADDR is set and an
// in-process one otherwise.
func accrualLocker(cfg config.Config, logger *slog.Logger) (scheduler.Locker, func()) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set; accrual lock is local to this process")
		return scheduler.NewLocalLocker(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return scheduler.NewRedisLocker(rdb), func() { _ = rdb.Close() }
}

func accrualScheduler(cfg config.Config, runner scheduler.AccrualRunner, logger *slog.Logger) (*scheduler.Scheduler, func(), error) {
	loc, err := time.LoadLocation(cfg.Accrual.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("accrual timezone: %w", err)
	}
	locker, closeLocker := accrualLocker(cfg, logger)
	job := scheduler.NewAccrualJob(runner, locker, cfg.Accrual.LockTTL, loc, logger)
	sched, err := scheduler.New(cfg.Accrual.Schedule, loc, job, logger)
	if err != nil {
		closeLocker()
		return nil, nil, err
	}
	return sched, closeLocker, nil
}
