package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/Stewz00/go-login-guard/internal/cache"
)

func newTestLimiter() (*Limiter, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := cache.NewMemoryCache()
	c.Now = clock
	l := New(c)
	l.Now = clock
	return l, &now
}

func TestLimiter_TooManyAttempts(t *testing.T) {
	l, _ := newTestLimiter()
	ctx := context.Background()
	key := "alice|10.0.0.1"

	tests := []struct {
		name     string
		hits     int
		wantLock bool
	}{
		{name: "no hits", hits: 0, wantLock: false},
		{name: "four hits", hits: 4, wantLock: false},
		{name: "five hits", hits: 1, wantLock: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.hits; i++ {
				if _, err := l.Hit(ctx, key, time.Minute); err != nil {
					t.Fatalf("hit: %v", err)
				}
			}
			locked, err := l.TooManyAttempts(ctx, key, 5)
			if err != nil {
				t.Fatalf("too many attempts: %v", err)
			}
			if locked != tt.wantLock {
				t.Errorf("got locked %v, want %v", locked, tt.wantLock)
			}
		})
	}
}

func TestLimiter_AvailableInAndDecay(t *testing.T) {
	l, now := newTestLimiter()
	ctx := context.Background()
	key := "bob|10.0.0.2"

	for i := 0; i < 3; i++ {
		_, _ = l.Hit(ctx, key, time.Minute)
	}

	*now = now.Add(20 * time.Second)
	secs, err := l.AvailableIn(ctx, key)
	if err != nil {
		t.Fatalf("available in: %v", err)
	}
	if secs != 40 {
		t.Errorf("got %d seconds, want 40", secs)
	}

	// The window does not slide with further hits.
	_, _ = l.Hit(ctx, key, time.Minute)
	secs, _ = l.AvailableIn(ctx, key)
	if secs != 40 {
		t.Errorf("got %d seconds after extra hit, want 40", secs)
	}

	*now = now.Add(41 * time.Second)
	locked, _ := l.TooManyAttempts(ctx, key, 3)
	if locked {
		t.Error("expected the window to have decayed")
	}
	hits, _ := l.Hit(ctx, key, time.Minute)
	if hits != 1 {
		t.Errorf("got %d hits after decay, want 1", hits)
	}
}

func TestLimiter_AvailableInPartialSecond(t *testing.T) {
	l, now := newTestLimiter()
	ctx := context.Background()
	key := "dave|10.0.0.4"

	*now = now.Add(900 * time.Millisecond)
	for i := 0; i < 5; i++ {
		_, _ = l.Hit(ctx, key, time.Minute)
	}

	tests := []struct {
		name       string
		at         time.Duration // since the first hit
		wantLocked bool
		wantSecs   int
	}{
		{name: "start of window", at: 0, wantLocked: true, wantSecs: 61},
		{name: "last partial second", at: 59*time.Second + 700*time.Millisecond, wantLocked: true, wantSecs: 1},
		{name: "after rounding", at: 60*time.Second + 100*time.Millisecond, wantLocked: false},
	}

	start := *now
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*now = start.Add(tt.at)

			locked, err := l.TooManyAttempts(ctx, key, 5)
			if err != nil {
				t.Fatalf("too many attempts: %v", err)
			}
			if locked != tt.wantLocked {
				t.Fatalf("got locked %v, want %v", locked, tt.wantLocked)
			}
			if !locked {
				return
			}
			secs, err := l.AvailableIn(ctx, key)
			if err != nil {
				t.Fatalf("available in: %v", err)
			}
			if secs != tt.wantSecs {
				t.Errorf("got %d seconds, want %d", secs, tt.wantSecs)
			}
		})
	}
}

func TestLimiter_Clear(t *testing.T) {
	l, _ := newTestLimiter()
	ctx := context.Background()
	key := "carol|10.0.0.3"

	for i := 0; i < 5; i++ {
		_, _ = l.Hit(ctx, key, time.Minute)
	}
	if err := l.Clear(ctx, key); err != nil {
		t.Fatalf("clear: %v", err)
	}

	attempts, _ := l.Attempts(ctx, key)
	if attempts != 0 {
		t.Errorf("got %d attempts after clear, want 0", attempts)
	}
	secs, _ := l.AvailableIn(ctx, key)
	if secs != 0 {
		t.Errorf("got %d seconds after clear, want 0", secs)
	}
}
