package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/souq-backend/pkg/config"
)

func TestIncrWithTTLExpiresOnce(t *testing.T) {
	ctx := context.Background()
	mem := newMemCommands()
	client := &Client{cmd: mem}

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, "rl:ip:login:10.0.0.1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, time.Minute, mem.ttl["rl:ip:login:10.0.0.1"])
	assert.Equal(t, 1, mem.expiresApplied)
}

func TestIncrWithoutTTLSkipsExpire(t *testing.T) {
	mem := newMemCommands()
	client := &Client{cmd: mem}

	_, err := client.IncrWithTTL(context.Background(), "counter", 0)
	require.NoError(t, err)
	assert.Empty(t, mem.ttl)
}

func TestClaimAndRelease(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmd: newMemCommands()}
	key := client.IdempotencyKey("payment-success", "pay-1")

	won, err := client.SetNX(ctx, key, "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = client.SetNX(ctx, key, "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, won)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestUnconnectedClient(t *testing.T) {
	var client *Client
	ctx := context.Background()

	_, err := client.Get(ctx, "k")
	assert.ErrorIs(t, err, errNotConnected)
	assert.ErrorIs(t, (&Client{}).Ping(ctx), errNotConnected)
	assert.NoError(t, client.Close())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "souq:idem:payment-success:pay-1", (&Client{}).IdempotencyKey("payment-success", "pay-1"))
	assert.Equal(t, "souq:cron-worker:lock:prod", Key("cron-worker", "lock", "prod"))
	assert.Equal(t, "souq:idem:pay-1", Key("idem", " ", "pay-1"))
	assert.Equal(t, "souq", Key())
}

func TestOptions(t *testing.T) {
	_, err := options(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := options(config.RedisConfig{Address: "cache:6379", DB: 2, PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = options(config.RedisConfig{URL: "redis://:secret@cache:6380/4", PoolSize: 3})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 4, opts.DB)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.PoolSize)
}

type memCommands struct {
	values         map[string]string
	counters       map[string]int64
	ttl            map[string]time.Duration
	expiresApplied int
}

func newMemCommands() *memCommands {
	return &memCommands{
		values:   map[string]string{},
		counters: map[string]int64{},
		ttl:      map[string]time.Duration{},
	}
}

func (m *memCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memCommands) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := m.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.values[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *memCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	m.counters[key]++
	return redis.NewIntResult(m.counters[key], nil)
}

func (m *memCommands) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if _, ok := m.ttl[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.ttl[key] = ttl
	m.expiresApplied++
	return redis.NewBoolResult(true, nil)
}

func (m *memCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.values, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestCompareAndDeleteRequiresConnection(t *testing.T) {
	_, err := (&Client{cmd: newMemCommands()}).CompareAndDelete(context.Background(), "k", "v")
	assert.ErrorIs(t, err, errNotConnected)
}
