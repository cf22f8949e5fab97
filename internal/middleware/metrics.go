package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "login_guard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	loginOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_guard_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
	lockouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "login_guard_lockouts_total",
			Help: "Logins rejected because the account was locked out",
		},
	)
)

// PrometheusMiddleware records request duration by route pattern.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// RecordLoginOutcome counts a finished login by outcome, such as
// "success", "failed", "captcha", "invalid" or "locked".
func RecordLoginOutcome(outcome string) {
	loginOutcomes.WithLabelValues(outcome).Inc()
}

// RecordLockout counts a login rejected by the lockout.
func RecordLockout() {
	lockouts.Inc()
}
