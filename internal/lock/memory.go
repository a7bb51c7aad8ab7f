package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker implements Locker for a single process. Expired entries are
// pruned lazily on the next Acquire, so no background goroutine is needed.
type MemoryLocker struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryLocker creates a new in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Acquire takes key for ttl unless a live holder exists.
func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, deadline := range m.expires {
		if !now.Before(deadline) {
			delete(m.expires, k)
		}
	}

	if _, held := m.expires[key]; held {
		return false, nil
	}
	m.expires[key] = now.Add(ttl)
	return true, nil
}

// Release frees key. An expired hold counts as not held.
func (m *MemoryLocker) Release(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	deadline, ok := m.expires[key]
	delete(m.expires, key)
	return ok && m.now().Before(deadline), nil
}

// IsHeld reports whether key has a live holder.
func (m *MemoryLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	deadline, ok := m.expires[key]
	return ok && m.now().Before(deadline), nil
}

var _ Locker = (*MemoryLocker)(nil)
