package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     int64
	expiresAt time.Time // zero means no expiry
}

// DefaultSweepInterval is how often writes purge expired entries.
const DefaultSweepInterval = time.Minute

// MemoryCache is an in-process Cache for single-instance deployments and tests.
// Expired entries are dropped when read and swept in bulk by writes at most
// once per SweepInterval.
type MemoryCache struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	nextSweep time.Time

	Now           func() time.Time
	SweepInterval time.Duration
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:       make(map[string]*memoryEntry),
		Now:           time.Now,
		SweepInterval: DefaultSweepInterval,
	}
}

// Len returns the number of entries held, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// maybeSweep removes every expired entry once the sweep deadline has
// passed. Caller holds mu.
func (c *MemoryCache) maybeSweep() {
	now := c.Now()
	if now.Before(c.nextSweep) {
		return
	}
	for key, e := range c.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.nextSweep = now.Add(c.SweepInterval)
}

// live returns the entry for key, dropping it if expired. Caller holds mu.
func (c *MemoryCache) live(key string) (*memoryEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !c.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e, true
}

func (c *MemoryCache) Has(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.live(key)
	return ok, nil
}

func (c *MemoryCache) Get(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		return 0, nil
	}
	return e.value, nil
}

func (c *MemoryCache) Put(ctx context.Context, key string, value int64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeSweep()

	c.entries[key] = &memoryEntry{value: value, expiresAt: c.expiry(ttl)}
	return nil
}

func (c *MemoryCache) Add(ctx context.Context, key string, value int64, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeSweep()

	if _, ok := c.live(key); ok {
		return false, nil
	}
	c.entries[key] = &memoryEntry{value: value, expiresAt: c.expiry(ttl)}
	return true, nil
}

func (c *MemoryCache) Increment(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeSweep()

	e, ok := c.live(key)
	if !ok {
		e = &memoryEntry{}
		c.entries[key] = e
	}
	e.value++
	return e.value, nil
}

func (c *MemoryCache) EnsureTTL(ctx context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.live(key); ok && e.expiresAt.IsZero() {
		e.expiresAt = c.expiry(ttl)
	}
	return nil
}

func (c *MemoryCache) Forget(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.Now().Add(ttl)
}
