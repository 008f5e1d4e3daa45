package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/souq-backend/internal/cart"
	"github.com/angelmondragon/souq-backend/internal/catalog"
	"github.com/angelmondragon/souq-backend/internal/cron"
	"github.com/angelmondragon/souq-backend/internal/offers"
	"github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/internal/payments"
	"github.com/angelmondragon/souq-backend/internal/reconciliation"
	"github.com/angelmondragon/souq-backend/pkg/bootstrap"
	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/metrics"
	"github.com/angelmondragon/souq-backend/pkg/outbox"
	"github.com/angelmondragon/souq-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run every job a single time and exit")
	flag.Parse()

	proc := bootstrap.Start("cron-worker")
	defer proc.Shutdown()
	cfg, logg := proc.Config, proc.Logger
	boot := context.Background()

	dbClient := proc.Database(boot)
	redisClient := proc.Redis(boot, false)

	gateway, err := payments.NewMyFatoorahClient(boot, cfg.Payment, logg)
	proc.Must(boot, "failed to create payment gateway client", err)
	registry, err := buildJobs(cfg, logg, dbClient, gateway)
	proc.Must(boot, "failed to build cron jobs", err)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 2*cfg.Cron.Interval)
	proc.Must(boot, "failed to create cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	proc.Must(boot, "failed to create cron service", err)

	ctx, stop := proc.SignalContext(map[string]any{"interval": cfg.Cron.Interval.String()})
	defer stop()

	if *once {
		logg.Info(ctx, "running cron jobs once")
		proc.Must(ctx, "cron run failed", service.RunOnce(ctx))
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		proc.Must(ctx, "cron worker stopped unexpectedly", err)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, gateway payments.Gateway) (*cron.Registry, error) {
	conn := dbClient.DB()
	ordersRepo := orders.NewRepository(conn)
	outboxRepo := outbox.NewRepository(conn)
	emitter := outbox.NewService(outboxRepo, logg)

	catalogRepo := catalog.NewRepository(conn)
	offersService, err := offers.NewService(offers.NewRepository(conn), catalogRepo)
	if err != nil {
		return nil, fmt.Errorf("offers service: %w", err)
	}
	cartService, err := cart.NewService(cart.NewRepository(conn), dbClient, catalogRepo, offersService)
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	successURL, errorURL := cfg.PaymentLandingURLs()
	resolver, err := reconciliation.NewService(reconciliation.ServiceParams{
		TxRunner:   dbClient,
		Orders:     ordersRepo,
		Gateway:    gateway,
		Cart:       cartService,
		Outbox:     emitter,
		Metrics:    metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Logger:     logg,
		SuccessURL: successURL,
		ErrorURL:   errorURL,
		StaleTTL:   cfg.Checkout.StalePendingTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("reconciliation service: %w", err)
	}

	stale, err := cron.NewStalePendingJob(cron.StalePendingJobParams{
		Logger:    logg,
		Orders:    ordersRepo,
		Resolver:  resolver,
		TTL:       cfg.Checkout.StalePendingTTL,
		BatchSize: cfg.Checkout.SweepBatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("stale pending job: %w", err)
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:             logg,
		DB:                 dbClient,
		Repository:         outboxRepo,
		RetentionDays:      cfg.Outbox.RetentionDays,
		DeadLetterAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}

	registry := cron.NewRegistry()
	for _, job := range []cron.Job{stale, retention} {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return redis.Key("cron-worker", "lock", env)
}
