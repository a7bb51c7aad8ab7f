// Package memory provides an in-memory session cache.
// This is suitable for single-node deployments where Redis is not available.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/prn-tf/marquee/internal/repository"
)

// DefaultSweepInterval is how often expired sessions are dropped.
const DefaultSweepInterval = time.Minute

// Cache implements repository.Cache in process memory.
// Records do not survive a restart and are not shared between instances.
type Cache struct {
	mu      sync.RWMutex
	records map[string]record
	now     func() time.Time
	sweep   time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// record is one stored value. A zero deadline never expires.
type record struct {
	value    []byte
	deadline time.Time
}

func (r record) live(now time.Time) bool {
	return r.deadline.IsZero() || now.Before(r.deadline)
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithSweepInterval changes how often expired records are dropped.
func WithSweepInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.sweep = d
		}
	}
}

// NewCache creates an empty cache and starts its sweeper.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		records: make(map[string]record),
		now:     time.Now,
		sweep:   DefaultSweepInterval,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.run()

	return c
}

func (c *Cache) run() {
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.dropExpired()
		}
	}
}

func (c *Cache) dropExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, r := range c.records {
		if !r.live(now) {
			delete(c.records, key)
		}
	}
}

// Stop stops the sweeper. It is safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Len returns the number of live records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	n := 0
	for _, r := range c.records {
		if r.live(now) {
			n++
		}
	}
	return n
}

// Get returns a copy of the stored value.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	r, ok := c.records[key]
	c.mu.RUnlock()

	if !ok || !r.live(c.now()) {
		return nil, repository.ErrCacheMiss
	}
	return append([]byte(nil), r.value...), nil
}

// Set stores a copy of value.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r := record{value: append([]byte(nil), value...)}
	if ttl > 0 {
		r.deadline = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.records[key] = r
	c.mu.Unlock()
	return nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.records, key)
	c.mu.Unlock()
	return nil
}

var _ repository.Cache = (*Cache)(nil)
