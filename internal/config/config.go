package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env       string
	Port      string
	JwtSecret string
	DbURL     string
	RedisURL  string
	LogLevel  string

	CachePrefix  string
	SessionTTL   time.Duration
	CookieSecure bool

	// TrustProxy takes the client IP from X-Forwarded-For/X-Real-IP. Only
	// enable behind a proxy that overwrites those headers.
	TrustProxy bool

	// Captcha is demanded once an IP has made more than CaptchaThreshold
	// attempts within CaptchaInterval.
	CaptchaThreshold int64
	CaptchaInterval  time.Duration

	// Lockout applies per username+IP after LoginMaxAttempts failures.
	LoginMaxAttempts int
	LoginDecay       time.Duration

	// Optional super admin created at startup when the name is free.
	AdminName     string
	AdminPassword string
}

// Load reads the configuration from a .env file or environment variables and returns a Config struct.
// It returns an error if any required variable is missing.
func Load() (*Config, error) {
	// Try to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	return LoadFromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CACHE_PREFIX", "login:")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("CAPTCHA_THRESHOLD", 5)
	v.SetDefault("CAPTCHA_INTERVAL_MINUTES", 60*12)
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_DECAY_SECONDS", 60)
	return v
}

// LoadFromViper builds a Config from an already populated viper instance.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	port := v.GetString("PORT")
	jwtSecret := v.GetString("JWT_SECRET")
	dbURL := v.GetString("DATABASE_URL")

	if port == "" || jwtSecret == "" || dbURL == "" {
		return nil, fmt.Errorf("missing required environment variables: PORT=%q, JWT_SECRET=%q, DATABASE_URL=%q", port, jwtSecret, dbURL)
	}

	sessionTTL, err := time.ParseDuration(v.GetString("SESSION_TTL"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	if sessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL: must be > 0")
	}

	cfg := &Config{
		Env:              v.GetString("APP_ENV"),
		Port:             port,
		JwtSecret:        jwtSecret,
		DbURL:            dbURL,
		RedisURL:         v.GetString("REDIS_URL"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		CachePrefix:      v.GetString("CACHE_PREFIX"),
		SessionTTL:       sessionTTL,
		CookieSecure:     v.GetBool("COOKIE_SECURE"),
		TrustProxy:       v.GetBool("TRUST_PROXY"),
		CaptchaThreshold: v.GetInt64("CAPTCHA_THRESHOLD"),
		CaptchaInterval:  time.Duration(v.GetInt64("CAPTCHA_INTERVAL_MINUTES")) * time.Minute,
		LoginMaxAttempts: v.GetInt("LOGIN_MAX_ATTEMPTS"),
		LoginDecay:       time.Duration(v.GetInt64("LOGIN_DECAY_SECONDS")) * time.Second,
		AdminName:        v.GetString("ADMIN_BOOTSTRAP_NAME"),
		AdminPassword:    v.GetString("ADMIN_BOOTSTRAP_PASSWORD"),
	}

	if cfg.CaptchaInterval <= 0 {
		return nil, fmt.Errorf("CAPTCHA_INTERVAL_MINUTES: must be > 0")
	}
	if cfg.LoginMaxAttempts <= 0 {
		return nil, fmt.Errorf("LOGIN_MAX_ATTEMPTS: must be > 0")
	}
	if cfg.LoginDecay <= 0 {
		return nil, fmt.Errorf("LOGIN_DECAY_SECONDS: must be > 0")
	}

	return cfg, nil
}

func (c *Config) IsProd() bool { return c.Env == "prod" }
