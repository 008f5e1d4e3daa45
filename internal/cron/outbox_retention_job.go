package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/logger"
)

const (
	defaultOutboxRetentionDays = 30
	defaultDeadLetterAttempts  = 10
)

// OutboxRetentionJobParams configure outbox pruning. DeadLetterAttempts is
// the publisher's max attempt count; unpublished rows at that count are
// dead letters and age out with the published ones.
type OutboxRetentionJobParams struct {
	Logger             *logger.Logger
	DB                 txRunner
	Repository         outboxPruner
	RetentionDays      int
	DeadLetterAttempts int
}

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultOutboxRetentionDays
	}
	attempts := params.DeadLetterAttempts
	if attempts <= 0 {
		attempts = defaultDeadLetterAttempts
	}
	return &outboxRetentionJob{
		logg:     params.Logger,
		db:       params.DB,
		repo:     params.Repository,
		days:     days,
		attempts: attempts,
		now:      time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg     *logger.Logger
	db       txRunner
	repo     outboxPruner
	days     int
	attempts int
	now      func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.days)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.attempts)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("prune outbox: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.days,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "cron.outbox_retention.pruned")
	return nil
}
