package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

const (
	defaultStalePendingTTL = 30 * time.Minute
	defaultSweepBatchSize  = 100
)

// StalePendingJobParams configure the stale pending order sweep.
type StalePendingJobParams struct {
	Logger    *logger.Logger
	Orders    stalePendingReader
	Resolver  staleOrderResolver
	TTL       time.Duration
	BatchSize int
}

type stalePendingReader interface {
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type staleOrderResolver interface {
	ResolveStale(ctx context.Context, order models.Order) error
}

// NewStalePendingJob builds the job that settles orders stuck in pending
// past the TTL, either from the gateway's answer or by expiring them.
func NewStalePendingJob(params StalePendingJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("stale order resolver required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultStalePendingTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatchSize
	}
	return &stalePendingJob{
		logg:     params.Logger,
		orders:   params.Orders,
		resolver: params.Resolver,
		ttl:      ttl,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type stalePendingJob struct {
	logg     *logger.Logger
	orders   stalePendingReader
	resolver staleOrderResolver
	ttl      time.Duration
	batch    int
	now      func() time.Time
}

func (j *stalePendingJob) Name() string { return "stale-pending-orders" }

func (j *stalePendingJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.orders.FindStalePending(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs error
	failed := 0
	for _, order := range stale {
		if err := j.resolver.ResolveStale(ctx, order); err != nil {
			failed++
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, err))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":      cutoff,
		"ttl_minutes": int(j.ttl.Minutes()),
		"candidates":  len(stale),
		"failed":      failed,
	})
	j.logg.Info(logCtx, "cron.stale_pending.swept")
	return errs
}
