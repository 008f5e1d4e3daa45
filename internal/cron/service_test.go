package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/metrics"
)

type fakeLock struct {
	held       bool
	releases   int
	releaseErr error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return f.releaseErr
}

type scriptedJob struct {
	name     string
	err      error
	runs     int
	deadline bool
}

func (j *scriptedJob) Name() string { return j.name }

func (j *scriptedJob) Run(ctx context.Context) error {
	j.runs++
	_, j.deadline = ctx.Deadline()
	return j.err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestRunOnceRunsEveryJobDespiteFailures(t *testing.T) {
	failing := &scriptedJob{name: "stale-pending-orders", err: errors.New("gateway timeout")}
	retention := &scriptedJob{name: "outbox-retention"}
	lock := &fakeLock{}
	reg := prometheus.NewRegistry()
	m := metrics.NewCronJobMetrics(reg)

	svc, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: NewRegistry(failing, retention),
		Lock:     lock,
		Metrics:  m,
		Interval: time.Minute,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, retention.runs)
	assert.True(t, retention.deadline, "jobs run under a deadline")
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "souq_cron_job_runs_total"))
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &scriptedJob{name: "stale-pending-orders"}
	lock := &fakeLock{held: true}
	svc, err := NewService(ServiceParams{Logger: quietLogger(), Registry: NewRegistry(job), Lock: lock})
	require.NoError(t, err)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
	assert.Zero(t, lock.releases)
	assert.Equal(t, defaultInterval, svc.interval)
}

func TestRunOnceReportsReleaseFailure(t *testing.T) {
	lock := &fakeLock{releaseErr: errors.New("redis gone")}
	svc, err := NewService(ServiceParams{Logger: quietLogger(), Lock: lock})
	require.NoError(t, err)

	assert.EqualError(t, svc.RunOnce(context.Background()), "redis gone")
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &scriptedJob{name: "outbox-retention"}
	svc, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{},
		Interval: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.Run(ctx), context.Canceled)
	assert.Equal(t, 1, job.runs, "first cycle runs immediately")
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: quietLogger()})
	assert.Error(t, err)
}
