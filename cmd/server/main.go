package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Stewz00/go-login-guard/internal/cache"
	"github.com/Stewz00/go-login-guard/internal/captcha"
	"github.com/Stewz00/go-login-guard/internal/config"
	"github.com/Stewz00/go-login-guard/internal/database"
	"github.com/Stewz00/go-login-guard/internal/handler"
	"github.com/Stewz00/go-login-guard/internal/logging"
	"github.com/Stewz00/go-login-guard/internal/middleware"
	"github.com/Stewz00/go-login-guard/internal/ratelimit"
	"github.com/Stewz00/go-login-guard/internal/repository"
	"github.com/Stewz00/go-login-guard/internal/service"
	"github.com/Stewz00/go-login-guard/internal/transformer"
	"github.com/mojocn/base64Captcha"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logging.New(cfg.LogLevel, cfg.IsProd())
	ctx := context.Background()

	// Initialize database
	db, err := database.New(ctx, cfg.DbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	// Shared cache: Redis when configured, process memory otherwise
	var store cache.Cache
	var captchaStore base64Captcha.Store
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to redis")
		}
		defer redisClient.Close()
		store = cache.NewRedisCache(redisClient, cfg.CachePrefix)
		captchaStore = captcha.NewRedisStore(redisClient, cfg.CachePrefix, log)
	} else {
		log.Warn().Msg("REDIS_URL not set; login counters are kept in process memory")
		store = cache.NewMemoryCache()
		captchaStore = captcha.NewMemoryStore()
	}

	// Initialize repositories, services, and handlers
	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, cfg.JwtSecret, cfg.SessionTTL)

	guard := service.NewLoginAttemptGuard(store, ratelimit.New(store), service.GuardConfig{
		CaptchaThreshold: cfg.CaptchaThreshold,
		CaptchaInterval:  cfg.CaptchaInterval,
		MaxAttempts:      cfg.LoginMaxAttempts,
		Decay:            cfg.LoginDecay,
	}, log)
	guard.OnLockout(func(service.LockoutEvent) { middleware.RecordLockout() })

	loginService := service.NewLoginService(guard, authService, authService, captcha.New(captchaStore), log)

	if created, err := authService.BootstrapAdmin(ctx, cfg.AdminName, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("bootstrap admin")
	} else if created {
		log.Info().Str("name", cfg.AdminName).Msg("created super admin")
	}

	if cfg.TrustProxy {
		log.Info().Msg("client IPs taken from X-Forwarded-For/X-Real-IP")
	}

	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler:    handler.NewAuthHandler(loginService, authService, transformer.NewUserTransformer(userRepo), cfg.CookieSecure, log),
		UserHandler:    handler.NewUserHandler(service.NewOfficialService(userRepo), log),
		Sessions:       authService,
		Log:            log,
		Secure:         middleware.SecureHeaders(!cfg.IsProd()),
		IPRateLimit:    middleware.RateLimiter(),
		LoginRateLimit: middleware.StrictRateLimiter(),
		Metrics:        true,
		TrustProxy:     cfg.TrustProxy,
		Ping:           db.Ping,
	})

	// Create server with timeouts
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
