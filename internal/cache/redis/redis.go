// Package redis backs sessions and job locks with Redis so several server
// instances can share one deployment.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/config"
	"github.com/prn-tf/marquee/internal/lock"
	"github.com/prn-tf/marquee/internal/repository"
)

// pingTimeout bounds the connection check in NewClient.
const pingTimeout = 5 * time.Second

// releaseScript deletes the key only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// Store implements repository.Cache and lock.Locker on one client.
type Store struct {
	client goredis.UniversalClient
	logger zerolog.Logger

	// owned maps lock keys taken by this process to their owner tokens.
	mu    sync.Mutex
	owned map[string]string
}

// NewClient connects to the configured Redis server and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, unavailable(err)
	}

	logger.Info().Str("addr", cfg.Addr()).Int("db", cfg.DB).Msg("connected to Redis")

	return New(client, logger), nil
}

// New wraps an existing client.
func New(client goredis.UniversalClient, logger zerolog.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
		owned:  make(map[string]string),
	}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", repository.ErrCacheUnavailable, err)
}

// =============================================================================
// Session Cache
// =============================================================================

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, repository.ErrCacheMiss
	case err != nil:
		return nil, unavailable(err)
	}
	return value, nil
}

// Set stores a value. A ttl of 0 keeps it until deleted.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Delete removes a value by key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// =============================================================================
// Job Locks
// =============================================================================

// Acquire takes key with SET NX PX and a random owner token.
func (s *Store) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, unavailable(err)
	}
	if !ok {
		s.logger.Debug().Str("key", key).Msg("lock held elsewhere")
		return false, nil
	}

	s.mu.Lock()
	s.owned[key] = token
	s.mu.Unlock()

	return true, nil
}

// Release frees key if this process still owns it. A hold that expired and
// was taken by another instance is left alone.
func (s *Store) Release(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	token, ok := s.owned[key]
	delete(s.owned, key)
	s.mu.Unlock()

	if !ok {
		return false, nil
	}

	n, err := releaseScript.Run(ctx, s.client, []string{key}, token).Int64()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

// IsHeld reports whether anyone holds key.
func (s *Store) IsHeld(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

var (
	_ repository.Cache = (*Store)(nil)
	_ lock.Locker      = (*Store)(nil)
)
