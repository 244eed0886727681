package config

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates the Redis client backing the run lock
func NewRedisClient(cfg LockConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:       cfg.RedisAddr,
		Password:   cfg.RedisPassword,
		DB:         cfg.RedisDB,
		MaxRetries: 3,
		PoolSize:   4,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})
}
