package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

type fakeStaleReader struct {
	orders []models.Order
	cutoff time.Time
	limit  int
	err    error
}

func (f *fakeStaleReader) FindStalePending(_ context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	f.cutoff = cutoff
	f.limit = limit
	return f.orders, f.err
}

type fakeResolver struct {
	failFor  map[uuid.UUID]error
	resolved []uuid.UUID
}

func (f *fakeResolver) ResolveStale(_ context.Context, order models.Order) error {
	f.resolved = append(f.resolved, order.ID)
	return f.failFor[order.ID]
}

func TestStalePendingJobResolvesEveryOrder(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	reader := &fakeStaleReader{orders: []models.Order{{ID: a}, {ID: b}, {ID: c}}}
	resolver := &fakeResolver{failFor: map[uuid.UUID]error{
		b: errors.New("gateway unreachable"),
		c: errors.New("db down"),
	}}

	job, err := NewStalePendingJob(StalePendingJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Orders:    reader,
		Resolver:  resolver,
		TTL:       45 * time.Minute,
		BatchSize: 20,
	})
	require.NoError(t, err)
	job.(*stalePendingJob).now = func() time.Time { return now }

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), b.String())
	assert.Contains(t, err.Error(), c.String())

	assert.Equal(t, []uuid.UUID{a, b, c}, resolver.resolved)
	assert.Equal(t, now.Add(-45*time.Minute), reader.cutoff)
	assert.Equal(t, 20, reader.limit)
	assert.Equal(t, "stale-pending-orders", job.Name())
}

func TestStalePendingJobDefaultsAndQueryError(t *testing.T) {
	reader := &fakeStaleReader{err: errors.New("timeout")}
	job, err := NewStalePendingJob(StalePendingJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Orders:   reader,
		Resolver: &fakeResolver{},
	})
	require.NoError(t, err)

	sp := job.(*stalePendingJob)
	assert.Equal(t, defaultStalePendingTTL, sp.ttl)
	assert.Equal(t, defaultSweepBatchSize, sp.batch)
	assert.Error(t, job.Run(context.Background()))
}

func TestStalePendingJobNoCandidates(t *testing.T) {
	job, err := NewStalePendingJob(StalePendingJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Orders:   &fakeStaleReader{},
		Resolver: &fakeResolver{},
	})
	require.NoError(t, err)
	assert.NoError(t, job.Run(context.Background()))
}
