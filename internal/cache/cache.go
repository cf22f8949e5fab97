package cache

import (
	"context"
	"time"
)

// Cache is a counter-oriented key/value store with TTL support.
// Implementations must be safe for concurrent use and must make Add and
// Increment atomic per key.
type Cache interface {
	// Has reports whether key exists and has not expired.
	Has(ctx context.Context, key string) (bool, error)
	// Get returns the value at key, or 0 when absent.
	Get(ctx context.Context, key string) (int64, error)
	// Put stores value at key for ttl, replacing any existing entry.
	Put(ctx context.Context, key string, value int64, ttl time.Duration) error
	// Add stores value at key for ttl only if key is absent.
	Add(ctx context.Context, key string, value int64, ttl time.Duration) (bool, error)
	// Increment adds one to key and returns the new value. The expiry of
	// an existing key is left untouched; a missing key starts at zero
	// with no expiry.
	Increment(ctx context.Context, key string) (int64, error)
	// EnsureTTL gives key an expiry of ttl when it exists without one.
	// The value and any existing expiry are left alone.
	EnsureTTL(ctx context.Context, key string, ttl time.Duration) error
	// Forget removes key.
	Forget(ctx context.Context, key string) error
}
