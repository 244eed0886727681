package persistence

import (
	"context"
	"testing"
	"time"

	"setdb-init/internal/shared/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLock(t *testing.T) (*RedisRunLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRunLock(client, logger.NewLoggerWithConfig("error", "json")), mr
}

func TestRedisRunLock_AcquireRelease(t *testing.T) {
	lock, mr := newTestLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "setdb-init:lock:rust_app_db", "run-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	value, err := mr.Get("setdb-init:lock:rust_app_db")
	require.NoError(t, err)
	assert.Equal(t, "run-1", value)
	assert.Equal(t, time.Minute, mr.TTL("setdb-init:lock:rust_app_db"))

	ok, err = lock.Acquire(ctx, "setdb-init:lock:rust_app_db", "run-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, "setdb-init:lock:rust_app_db", "run-1"))
	assert.False(t, mr.Exists("setdb-init:lock:rust_app_db"))

	ok, err = lock.Acquire(ctx, "setdb-init:lock:rust_app_db", "run-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisRunLock_ReleaseKeepsForeignToken(t *testing.T) {
	lock, mr := newTestLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "k", "run-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx, "k", "run-2"))

	value, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "run-1", value)
}

func TestRedisRunLock_ExpiresAfterTTL(t *testing.T) {
	lock, mr := newTestLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "k", "run-1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = lock.Acquire(ctx, "k", "run-2", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// the expired holder must not delete the new lock
	require.NoError(t, lock.Release(ctx, "k", "run-1"))
	assert.True(t, mr.Exists("k"))
}

func TestRedisRunLock_BackendDown(t *testing.T) {
	lock, mr := newTestLock(t)
	mr.Close()

	ok, err := lock.Acquire(context.Background(), "k", "run-1", time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, lock.Ping(context.Background()))
}
