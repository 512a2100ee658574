package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/packlane/groupbuy-backend/internal/cron"
	"github.com/packlane/groupbuy-backend/internal/finalizer"
	"github.com/packlane/groupbuy-backend/internal/grouporders"
	"github.com/packlane/groupbuy-backend/internal/ledger"
	"github.com/packlane/groupbuy-backend/pkg/config"
	"github.com/packlane/groupbuy-backend/pkg/db"
	"github.com/packlane/groupbuy-backend/pkg/logger"
	"github.com/packlane/groupbuy-backend/pkg/metrics"
	"github.com/packlane/groupbuy-backend/pkg/migrate"
	"github.com/packlane/groupbuy-backend/pkg/outbox"
	"github.com/packlane/groupbuy-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sweeper-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sweeper-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sweeper-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)
	groupOrdersRepo := grouporders.NewRepository(dbClient.DB())

	groupOrdersSvc, err := grouporders.NewService(
		groupOrdersRepo,
		ledger.NewRepository(dbClient.DB()),
		dbClient,
		outboxService,
		redisClient,
		cfg.GroupBuy,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create group orders service", err)
		os.Exit(1)
	}

	finalizerSvc, err := finalizer.NewService(
		finalizer.NewRepository(dbClient.DB()),
		groupOrdersRepo,
		dbClient,
		outboxService,
		redisClient,
		cfg.GroupBuy.MutationLockTTL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create finalizer service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	sweepJob, err := cron.NewDeadlineSweepJob(cron.DeadlineSweepJobParams{
		Logger:    logg,
		Orders:    groupOrdersRepo,
		Lifecycle: groupOrdersSvc,
		Finalizer: finalizerSvc,
		Metrics:   metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create deadline sweep job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.SweepLockKey(cfg.App.Env), cfg.Sweeper.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob, retentionJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Sweeper.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting sweeper worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sweeper worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sweeper worker shutting down gracefully")
}
