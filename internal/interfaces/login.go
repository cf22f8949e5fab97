package interfaces

import (
	"context"
	"time"

	"github.com/Stewz00/go-login-guard/internal/model"
)

// LoginThrottler is the brute-force capability set used by the login flow.
type LoginThrottler interface {
	ValidateCredentials(name, password string) error
	IsLockedOut(ctx context.Context, name, ip string) (locked bool, retryAfterSeconds int, err error)
	RecordFailure(ctx context.Context, name, ip string) error
	RecordSuccess(ctx context.Context, name, ip string) error
}

// RateLimiter tracks failed-attempt counts per throttle key.
type RateLimiter interface {
	TooManyAttempts(ctx context.Context, key string, maxAttempts int) (bool, error)
	AvailableIn(ctx context.Context, key string) (int, error)
	Hit(ctx context.Context, key string, decay time.Duration) (int64, error)
	Clear(ctx context.Context, key string) error
}

// CredentialVerifier resolves a username and password to a user.
type CredentialVerifier interface {
	Attempt(ctx context.Context, name, password string) (*model.User, error)
}

// SessionIssuer produces the authenticated session for a verified user.
type SessionIssuer interface {
	IssueSession(ctx context.Context, user *model.User) (token string, expiresAt time.Time, err error)
}

// CaptchaVerifier issues image challenges and checks answers against them.
type CaptchaVerifier interface {
	Issue(ctx context.Context) (challengeID, image string, err error)
	Verify(ctx context.Context, challengeID, answer string) bool
}
