package reconciliation

import (
	"context"
	"time"

	"github.com/angelmondragon/souq-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/souq-backend/pkg/redis"
)

const defaultGuardTTL = 10 * time.Minute

// IdempotencyGuard drops repeated gateway callbacks for the same payment
// within a TTL. It only saves work: the conditional order updates decide
// whether a callback has an effect.
type IdempotencyGuard struct {
	store pkgredis.IdempotencyStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewIdempotencyGuard builds a guard. A nil store disables it.
func NewIdempotencyGuard(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &IdempotencyGuard{store: store, ttl: ttl, logg: logg}
}

// Claim reports whether the caller is the first to handle id in scope.
// Redis failures fail open.
func (g *IdempotencyGuard) Claim(ctx context.Context, scope, id string) bool {
	if g == nil || g.store == nil || id == "" {
		return true
	}
	ok, err := g.store.SetNX(ctx, g.store.IdempotencyKey(scope, id), time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		if g.logg != nil {
			g.logg.Error(g.logg.WithField(ctx, "payment_key", id), "reconciliation.guard_unavailable", err)
		}
		return true
	}
	return ok
}

// Release forgets a claim so a later callback can retry.
func (g *IdempotencyGuard) Release(ctx context.Context, scope, id string) {
	if g == nil || g.store == nil || id == "" {
		return
	}
	if err := g.store.Del(ctx, g.store.IdempotencyKey(scope, id)); err != nil && g.logg != nil {
		g.logg.Warn(g.logg.WithField(ctx, "error", err.Error()), "reconciliation.guard_release_failed")
	}
}
