package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func testViper(values map[string]any) *viper.Viper {
	v := newViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoadFromViper_Defaults(t *testing.T) {
	cfg, err := LoadFromViper(testViper(map[string]any{
		"PORT":         "8080",
		"JWT_SECRET":   "secret",
		"DATABASE_URL": "postgres://localhost/test",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.CaptchaThreshold != 5 {
		t.Errorf("got captcha threshold %d, want 5", cfg.CaptchaThreshold)
	}
	if cfg.CaptchaInterval != 12*time.Hour {
		t.Errorf("got captcha interval %v, want 12h", cfg.CaptchaInterval)
	}
	if cfg.LoginMaxAttempts != 5 {
		t.Errorf("got max attempts %d, want 5", cfg.LoginMaxAttempts)
	}
	if cfg.LoginDecay != time.Minute {
		t.Errorf("got decay %v, want 1m", cfg.LoginDecay)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("got session ttl %v, want 24h", cfg.SessionTTL)
	}
	if cfg.RedisURL != "" {
		t.Errorf("expected empty redis url, got %q", cfg.RedisURL)
	}
	if cfg.TrustProxy {
		t.Error("expected proxy headers to be ignored by default")
	}
}

func TestLoadFromViper_TrustProxy(t *testing.T) {
	cfg, err := LoadFromViper(testViper(map[string]any{
		"PORT":         "8080",
		"JWT_SECRET":   "secret",
		"DATABASE_URL": "postgres://localhost/test",
		"TRUST_PROXY":  "true",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.TrustProxy {
		t.Error("expected TrustProxy to be enabled")
	}
}

func TestLoadFromViper_Errors(t *testing.T) {
	base := map[string]any{
		"PORT":         "8080",
		"JWT_SECRET":   "secret",
		"DATABASE_URL": "postgres://localhost/test",
	}

	tests := []struct {
		name     string
		override map[string]any
	}{
		{name: "missing port", override: map[string]any{"PORT": ""}},
		{name: "missing secret", override: map[string]any{"JWT_SECRET": ""}},
		{name: "bad session ttl", override: map[string]any{"SESSION_TTL": "forever"}},
		{name: "zero max attempts", override: map[string]any{"LOGIN_MAX_ATTEMPTS": 0}},
		{name: "negative decay", override: map[string]any{"LOGIN_DECAY_SECONDS": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := map[string]any{}
			for k, v := range base {
				values[k] = v
			}
			for k, v := range tt.override {
				values[k] = v
			}
			if _, err := LoadFromViper(testViper(values)); err == nil {
				t.Error("expected error but got none")
			}
		})
	}
}

func TestLoadFromViper_AdminBootstrap(t *testing.T) {
	cfg, err := LoadFromViper(testViper(map[string]any{
		"PORT":                     "8080",
		"JWT_SECRET":               "secret",
		"DATABASE_URL":             "postgres://localhost/test",
		"ADMIN_BOOTSTRAP_NAME":     "admin",
		"ADMIN_BOOTSTRAP_PASSWORD": "admin12345",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AdminName != "admin" || cfg.AdminPassword != "admin12345" {
		t.Errorf("got admin %q/%q", cfg.AdminName, cfg.AdminPassword)
	}
}
