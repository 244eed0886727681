package repository

import (
	"context"
	"time"
)

// NoopRunLock always grants the lock. Used when no Redis backend is configured.
type NoopRunLock struct{}

func (NoopRunLock) Acquire(context.Context, string, string, time.Duration) (bool, error) {
	return true, nil
}

func (NoopRunLock) Release(context.Context, string, string) error {
	return nil
}
