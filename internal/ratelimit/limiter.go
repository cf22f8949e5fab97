package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/Stewz00/go-login-guard/internal/cache"
	"github.com/Stewz00/go-login-guard/internal/interfaces"
)

const timerSuffix = ":timer"

// Limiter counts hits per key inside a decay window. Each key has a
// companion "<key>:timer" entry holding the unix time at which the window
// closes, so callers can report how long is left.
type Limiter struct {
	cache cache.Cache
	Now   func() time.Time
}

var _ interfaces.RateLimiter = (*Limiter)(nil)

func New(c cache.Cache) *Limiter {
	return &Limiter{cache: c, Now: time.Now}
}

// Hit records one attempt against key and returns the number of hits in
// the current window.
func (l *Limiter) Hit(ctx context.Context, key string, decay time.Duration) (int64, error) {
	now := l.Now()
	availableAt := windowEnd(now, decay)
	if _, err := l.cache.Add(ctx, key+timerSuffix, availableAt.Unix(), availableAt.Sub(now)); err != nil {
		return 0, fmt.Errorf("add timer: %w", err)
	}

	added, err := l.cache.Add(ctx, key, 0, decay)
	if err != nil {
		return 0, fmt.Errorf("add counter: %w", err)
	}

	hits, err := l.cache.Increment(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}

	// The counter expired between Add and Increment and was recreated
	// without a TTL.
	if !added && hits == 1 {
		if err := l.cache.EnsureTTL(ctx, key, decay); err != nil {
			return 0, fmt.Errorf("restore counter ttl: %w", err)
		}
	}

	return hits, nil
}

// windowEnd rounds now+decay up to a whole second so the timer key never
// outlives the unix time it stores.
func windowEnd(now time.Time, decay time.Duration) time.Time {
	end := now.Add(decay)
	if trunc := end.Truncate(time.Second); trunc.Before(end) {
		return trunc.Add(time.Second)
	}
	return end
}

// Attempts returns the hits recorded against key in the current window.
func (l *Limiter) Attempts(ctx context.Context, key string) (int64, error) {
	return l.cache.Get(ctx, key)
}

// TooManyAttempts reports whether key has reached maxAttempts while its
// window is still open.
func (l *Limiter) TooManyAttempts(ctx context.Context, key string, maxAttempts int) (bool, error) {
	attempts, err := l.Attempts(ctx, key)
	if err != nil {
		return false, err
	}
	if attempts < int64(maxAttempts) {
		return false, nil
	}

	open, err := l.cache.Has(ctx, key+timerSuffix)
	if err != nil {
		return false, err
	}
	if open {
		return true, nil
	}

	return false, l.cache.Forget(ctx, key)
}

// AvailableIn returns the seconds until the window for key closes. An open
// window always reports at least one second.
func (l *Limiter) AvailableIn(ctx context.Context, key string) (int, error) {
	availableAt, err := l.cache.Get(ctx, key+timerSuffix)
	if err != nil {
		return 0, err
	}
	if availableAt == 0 {
		return 0, nil
	}
	secs := availableAt - l.Now().Unix()
	if secs < 1 {
		secs = 1
	}
	return int(secs), nil
}

// Clear drops both the counter and the timer for key.
func (l *Limiter) Clear(ctx context.Context, key string) error {
	if err := l.cache.Forget(ctx, key); err != nil {
		return err
	}
	return l.cache.Forget(ctx, key+timerSuffix)
}
