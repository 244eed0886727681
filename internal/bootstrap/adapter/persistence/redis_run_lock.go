package persistence

import (
	"context"
	"time"

	"setdb-init/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRunLock implements RunLock with SET NX PX on a shared Redis
type RedisRunLock struct {
	client *redis.Client
	logger logger.Logger
}

// NewRedisRunLock creates a new Redis-backed run lock
func NewRedisRunLock(client *redis.Client, log logger.Logger) *RedisRunLock {
	return &RedisRunLock{
		client: client,
		logger: log.WithComponent("run-lock"),
	}
}

// Acquire sets key to token if it is free. The ttl bounds how long a crashed
// holder blocks other runs.
func (l *RedisRunLock) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, err
	}

	if !ok {
		holder, _ := l.client.Get(ctx, key).Result()
		l.logger.WithFields(map[string]interface{}{
			"key":    key,
			"holder": holder,
		}).Warn("Bootstrap lock held by another run")
		return false, nil
	}

	l.logger.WithFields(map[string]interface{}{
		"key": key,
		"ttl": ttl.String(),
	}).Debug("Bootstrap lock acquired")
	return true, nil
}

// Release deletes key if token still owns it
func (l *RedisRunLock) Release(ctx context.Context, key, token string) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		l.logger.WithFields(map[string]interface{}{"key": key}).Warn("Bootstrap lock expired before release")
	}
	return nil
}

// Ping checks the Redis connection
func (l *RedisRunLock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
