package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimiter creates a middleware that limits requests based on IP address
// It allows 100 requests per minute per IP address for regular endpoints
func RateLimiter() func(http.Handler) http.Handler {
	return IPRateLimiter(100, time.Minute)
}

// StrictRateLimiter creates a more restrictive rate limiter for the login
// and captcha endpoints (10 requests per minute per IP). Failed credentials
// are handled separately by the account lockout.
func StrictRateLimiter() func(http.Handler) http.Handler {
	return IPRateLimiter(10, time.Minute)
}

// IPRateLimiter limits each client IP to limit requests per window and
// answers with a JSON body once the limit is hit.
func IPRateLimiter(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"Too Many Attempts."}`))
		}),
	)
}
