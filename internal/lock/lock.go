// Package lock coordinates jobs that must run on one server at a time, such
// as seeding the first manager account and refreshing the catalog gauges.
// A single server uses MemoryLocker. Servers sharing Redis use the Redis
// store, which satisfies Locker directly.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Locker grants exclusive, expiring ownership of a key.
type Locker interface {
	// Acquire takes key for ttl. It reports false when another owner holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees key. It reports false when the caller did not hold it.
	Release(ctx context.Context, key string) (bool, error)

	// IsHeld reports whether anyone currently holds key.
	IsHeld(ctx context.Context, key string) (bool, error)
}

// releaseTimeout bounds the release that follows a Run, even when the
// caller's context has already been cancelled.
const releaseTimeout = 5 * time.Second

// Run acquires key, calls fn while holding it and releases it afterwards.
// It reports false without calling fn when another holder owns the lock.
// A failed release is joined to fn's error; the hold still lapses after ttl.
func Run(ctx context.Context, locker Locker, key string, ttl time.Duration, fn func(ctx context.Context) error) (ran bool, err error) {
	acquired, err := locker.Acquire(ctx, key, ttl)
	if err != nil || !acquired {
		return false, err
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if _, releaseErr := locker.Release(releaseCtx, key); releaseErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to release lock %q: %w", key, releaseErr))
		}
	}()

	return true, fn(ctx)
}

// =============================================================================
// Lock Keys
// =============================================================================

// Keys provides the lock keys used by background jobs.
var Keys = lockKeys{}

type lockKeys struct{}

// SeedManagers returns the lock key guarding first-run manager seeding.
func (lockKeys) SeedManagers() string {
	return "lock:seed:managers"
}

// StatsRefresh returns the lock key for the catalog statistics refresh job.
func (lockKeys) StatsRefresh() string {
	return "lock:stats:refresh"
}

// =============================================================================
// No-op Locker
// =============================================================================

// NoOpLocker grants every request. Services fall back to it when no locker
// is configured, and the CLIs use it since they run alone.
type NoOpLocker struct{}

// NewNoOpLocker creates a new no-op locker.
func NewNoOpLocker() *NoOpLocker {
	return &NoOpLocker{}
}

// Acquire always succeeds unless ctx is done.
func (NoOpLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return ctx.Err() == nil, ctx.Err()
}

// Release always succeeds unless ctx is done.
func (NoOpLocker) Release(ctx context.Context, key string) (bool, error) {
	return ctx.Err() == nil, ctx.Err()
}

// IsHeld always reports false.
func (NoOpLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	return false, ctx.Err()
}

var _ Locker = NoOpLocker{}
