package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	values map[string]string
	err    error
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) CompareAndDelete(_ context.Context, key, want string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.values[key] != want {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

const testLockKey = "souq:cron-worker:lock:test"

func TestRedisLockSingleOwner(t *testing.T) {
	ctx := context.Background()
	store := &memoryLockStore{values: map[string]string{}}

	first, err := NewRedisLock(store, testLockKey, 0)
	require.NoError(t, err)
	second, err := NewRedisLock(store, testLockKey, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, first.ttl)

	won, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, won)

	require.NoError(t, second.Release(ctx))
	assert.Contains(t, store.values, testLockKey)

	require.NoError(t, first.Release(ctx))
	assert.NotContains(t, store.values, testLockKey)

	won, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestRedisLockDoesNotFreeSuccessorsLock(t *testing.T) {
	ctx := context.Background()
	store := &memoryLockStore{values: map[string]string{}}
	stale, err := NewRedisLock(store, testLockKey, time.Minute)
	require.NoError(t, err)

	won, err := stale.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, won)

	// TTL expiry, then another worker claims the key
	store.values[testLockKey] = "successor-token"

	require.NoError(t, stale.Release(ctx))
	assert.Equal(t, "successor-token", store.values[testLockKey])
}

func TestRedisLockReleaseError(t *testing.T) {
	ctx := context.Background()
	store := &memoryLockStore{values: map[string]string{}}
	lock, err := NewRedisLock(store, testLockKey, time.Minute)
	require.NoError(t, err)
	_, err = lock.Acquire(ctx)
	require.NoError(t, err)

	store.err = errors.New("connection reset")
	assert.ErrorContains(t, lock.Release(ctx), "connection reset")
	assert.NoError(t, lock.Release(ctx), "token is dropped after a release attempt")
}

func TestNewRedisLockValidation(t *testing.T) {
	_, err := NewRedisLock(nil, "k", 0)
	assert.Error(t, err)
	_, err = NewRedisLock(&memoryLockStore{}, "", 0)
	assert.Error(t, err)
}
