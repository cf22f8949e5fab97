package handler

import (
	"context"
	"net/http"

	"github.com/Stewz00/go-login-guard/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	AuthHandler    *AuthHandler
	UserHandler    *UserHandler
	Sessions       middleware.SessionValidator
	Log            zerolog.Logger
	IPRateLimit    func(http.Handler) http.Handler // every route
	LoginRateLimit func(http.Handler) http.Handler // login and captcha
	Secure         func(http.Handler) http.Handler
	Metrics        bool
	TrustProxy     bool                            // honour X-Forwarded-For and X-Real-IP
	Ping           func(ctx context.Context) error // optional database check for /health
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(chimiddleware.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ping != nil {
			if err := cfg.Ping(r.Context()); err != nil {
				cfg.Log.Error().Err(err).Msg("health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("UNAVAILABLE"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/login/need-verification-code", cfg.AuthHandler.NeedVerificationCode)

		// Login routes with strict rate limiting
		r.Group(func(r chi.Router) {
			if cfg.LoginRateLimit != nil {
				r.Use(cfg.LoginRateLimit)
			}
			r.Post("/login", cfg.AuthHandler.Login)
			r.Get("/captcha", cfg.AuthHandler.Captcha)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(cfg.Sessions, cfg.Log))
			r.Post("/logout", cfg.AuthHandler.Logout)
			r.Get("/user", cfg.AuthHandler.CurrentUser)
			r.Get("/lead-officials", cfg.UserHandler.LeadOfficials)
		})
	})

	return r
}
