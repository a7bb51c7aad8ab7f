package repository

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable indicates the backing cache could not be reached.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// =============================================================================
// Cache Interface
// =============================================================================

// Cache is the key/value store behind server-side sessions. The memory
// implementation serves single-instance deployments and Redis the rest.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value, replacing any previous one and its expiry.
	// A ttl of 0 stores the value without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// =============================================================================
// Common Cache Keys
// =============================================================================

// CacheKey generates cache keys for common scenarios.
type CacheKey struct{}

// Session returns the cache key for a session record. digest is the hex
// SHA-256 of the session id, never the id itself.
func (CacheKey) Session(digest string) string {
	return "session:" + digest
}
