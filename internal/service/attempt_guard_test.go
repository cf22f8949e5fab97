package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Stewz00/go-login-guard/internal/cache"
	"github.com/Stewz00/go-login-guard/internal/ratelimit"
	"github.com/rs/zerolog"
)

type guardFixture struct {
	guard   *LoginAttemptGuard
	cache   *cache.MemoryCache
	limiter *ratelimit.Limiter
	now     *time.Time
}

func newGuardFixture() *guardFixture {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := cache.NewMemoryCache()
	c.Now = clock
	l := ratelimit.New(c)
	l.Now = clock

	return &guardFixture{
		guard:   NewLoginAttemptGuard(c, l, DefaultGuardConfig(), zerolog.Nop()),
		cache:   c,
		limiter: l,
		now:     &now,
	}
}

func TestShouldRequireCaptcha(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		want     bool
	}{
		{name: "unseen ip", attempts: 0, want: false},
		{name: "one attempt", attempts: 1, want: false},
		{name: "at threshold", attempts: 5, want: false},
		{name: "over threshold", attempts: 6, want: true},
		{name: "well over threshold", attempts: 20, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGuardFixture()
			ctx := context.Background()

			for i := 0; i < tt.attempts; i++ {
				if err := f.guard.RecordAttempt(ctx, "10.0.0.1"); err != nil {
					t.Fatalf("record attempt: %v", err)
				}
			}

			got, err := f.guard.ShouldRequireCaptcha(ctx, "10.0.0.1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}

			other, _ := f.guard.ShouldRequireCaptcha(ctx, "10.0.0.2")
			if other {
				t.Error("attempts leaked to another ip")
			}
		})
	}
}

func TestRecordAttempt_Concurrent(t *testing.T) {
	f := newGuardFixture()
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.guard.RecordAttempt(ctx, "10.0.0.1"); err != nil {
				t.Errorf("record attempt: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := f.guard.AttemptCount(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != n {
		t.Errorf("got count %d, want %d", got, n)
	}
}

func TestRecordAttempt_DoesNotExtendInterval(t *testing.T) {
	f := newGuardFixture()
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		if err := f.guard.RecordAttempt(ctx, "10.0.0.1"); err != nil {
			t.Fatalf("record attempt: %v", err)
		}
	}

	*f.now = f.now.Add(719 * time.Minute)
	if err := f.guard.RecordAttempt(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	if need, _ := f.guard.ShouldRequireCaptcha(ctx, "10.0.0.1"); !need {
		t.Error("captcha should still be required inside the interval")
	}

	*f.now = f.now.Add(2 * time.Minute)
	if need, _ := f.guard.ShouldRequireCaptcha(ctx, "10.0.0.1"); need {
		t.Error("counter outlived its interval")
	}

	if err := f.guard.RecordAttempt(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	if got, _ := f.guard.AttemptCount(ctx, "10.0.0.1"); got != 1 {
		t.Errorf("got count %d after expiry, want 1", got)
	}
}

func TestValidateCredentials(t *testing.T) {
	f := newGuardFixture()

	tests := []struct {
		name     string
		username string
		password string
		wantMsg  string
	}{
		{name: "valid", username: "alice", password: "secret123"},
		{name: "unicode letters", username: "alice", password: "密码abc12"},
		{name: "combining marks", username: "alice", password: "cafe\u0301s1"},
		{name: "missing name", username: "", password: "secret123", wantMsg: "name 字段必须填写"},
		{name: "missing password", username: "alice", password: "", wantMsg: "password 字段必须填写"},
		{name: "too short", username: "alice", password: "ab1", wantMsg: "password 字段最少5个字符"},
		{name: "too long", username: "alice", password: "abcdefghij12345678901", wantMsg: "password 字段最多20个字符"},
		{name: "symbols", username: "alice", password: "secret!23", wantMsg: "password 字段必须是字符和密码的组合"},
		{name: "whitespace", username: "alice", password: "secret 123", wantMsg: "password 字段必须是字符和密码的组合"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.guard.ValidateCredentials(tt.username, tt.password)

			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, ErrValidation) {
				t.Fatalf("got error %v, want validation error", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("got message %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLockout(t *testing.T) {
	f := newGuardFixture()
	ctx := context.Background()

	var events []LockoutEvent
	f.guard.OnLockout(func(ev LockoutEvent) { events = append(events, ev) })

	for i := 0; i < 4; i++ {
		if err := f.guard.RecordFailure(ctx, "Alice", "10.0.0.1"); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}
	if locked, _, _ := f.guard.IsLockedOut(ctx, "alice", "10.0.0.1"); locked {
		t.Fatal("locked out before reaching max attempts")
	}

	*f.now = f.now.Add(20 * time.Second)
	if err := f.guard.RecordFailure(ctx, "ALICE", "10.0.0.1"); err != nil {
		t.Fatalf("record failure: %v", err)
	}

	locked, retryAfter, err := f.guard.IsLockedOut(ctx, "alice", "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !locked {
		t.Fatal("expected lockout after max attempts")
	}
	if retryAfter != 40 {
		t.Errorf("got retry after %d, want 40", retryAfter)
	}
	if len(events) != 1 || events[0].Key != "alice|10.0.0.1" {
		t.Errorf("unexpected lockout events: %+v", events)
	}

	if locked, _, _ := f.guard.IsLockedOut(ctx, "alice", "10.0.0.2"); locked {
		t.Error("lockout leaked to another ip")
	}

	*f.now = f.now.Add(41 * time.Second)
	if locked, _, _ := f.guard.IsLockedOut(ctx, "alice", "10.0.0.1"); locked {
		t.Error("lockout outlived the decay window")
	}
}

func TestRecordSuccess_ClearsFailures(t *testing.T) {
	f := newGuardFixture()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := f.guard.RecordFailure(ctx, "alice", "10.0.0.1"); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}
	if err := f.guard.RecordSuccess(ctx, "alice", "10.0.0.1"); err != nil {
		t.Fatalf("record success: %v", err)
	}

	if got, _ := f.limiter.Attempts(ctx, ThrottleKey("alice", "10.0.0.1")); got != 0 {
		t.Errorf("got %d attempts after success, want 0", got)
	}
	if locked, _, _ := f.guard.IsLockedOut(ctx, "alice", "10.0.0.1"); locked {
		t.Error("still locked out after success")
	}
}
