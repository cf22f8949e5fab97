package service

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Stewz00/go-login-guard/internal/cache"
	"github.com/Stewz00/go-login-guard/internal/interfaces"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const attemptKeyPrefix = "attempt_login_times:"

// Letters, combining marks and digits from any script.
var alphaNumPattern = regexp.MustCompile(`^[\pL\pM\pN]+$`)

// GuardConfig holds the thresholds for both brute-force defences.
type GuardConfig struct {
	// CaptchaThreshold is how many attempts an IP may make before a
	// captcha is demanded.
	CaptchaThreshold int64
	// CaptchaInterval is the lifetime of the per-IP attempt counter.
	CaptchaInterval time.Duration
	MaxAttempts     int
	Decay           time.Duration
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		CaptchaThreshold: 5,
		CaptchaInterval:  720 * time.Minute,
		MaxAttempts:      5,
		Decay:            60 * time.Second,
	}
}

// LockoutEvent describes a rejected login for a locked throttle key.
type LockoutEvent struct {
	Name       string
	IP         string
	Key        string
	RetryAfter int
}

type credentials struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=5,max=20,alpha_num"`
}

// LoginAttemptGuard decides whether a login may proceed. It keeps a per-IP
// attempt counter that switches on the captcha and delegates per-account
// lockout to a RateLimiter.
type LoginAttemptGuard struct {
	cache    cache.Cache
	limiter  interfaces.RateLimiter
	validate *validator.Validate
	cfg      GuardConfig
	log      zerolog.Logger

	mu        sync.RWMutex
	onLockout []func(LockoutEvent)
}

var _ interfaces.LoginThrottler = (*LoginAttemptGuard)(nil)

func NewLoginAttemptGuard(c cache.Cache, limiter interfaces.RateLimiter, cfg GuardConfig, log zerolog.Logger) *LoginAttemptGuard {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("alpha_num", func(fl validator.FieldLevel) bool {
		return alphaNumPattern.MatchString(fl.Field().String())
	})

	return &LoginAttemptGuard{
		cache:    c,
		limiter:  limiter,
		validate: v,
		cfg:      cfg,
		log:      log,
	}
}

// OnLockout registers fn to run whenever a locked-out login is rejected.
func (g *LoginAttemptGuard) OnLockout(fn func(LockoutEvent)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onLockout = append(g.onLockout, fn)
}

func attemptKey(ip string) string {
	return attemptKeyPrefix + ip
}

// ThrottleKey is the lockout key for a name and IP pair.
func ThrottleKey(name, ip string) string {
	return strings.ToLower(name) + "|" + ip
}

// ShouldRequireCaptcha reports whether ip has made more attempts than the
// configured threshold within the current interval.
func (g *LoginAttemptGuard) ShouldRequireCaptcha(ctx context.Context, ip string) (bool, error) {
	key := attemptKey(ip)
	exists, err := g.cache.Has(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check attempt counter: %w", err)
	}
	if !exists {
		return false, nil
	}

	count, err := g.cache.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read attempt counter: %w", err)
	}
	return count > g.cfg.CaptchaThreshold, nil
}

// RecordAttempt counts one login attempt from ip. The first attempt starts
// the interval; later ones never extend it.
func (g *LoginAttemptGuard) RecordAttempt(ctx context.Context, ip string) error {
	key := attemptKey(ip)

	added, err := g.cache.Add(ctx, key, 0, g.cfg.CaptchaInterval)
	if err != nil {
		return fmt.Errorf("init attempt counter: %w", err)
	}

	count, err := g.cache.Increment(ctx, key)
	if err != nil {
		return fmt.Errorf("increment attempt counter: %w", err)
	}

	// Expired between Add and Increment; the new key has no TTL yet.
	if !added && count == 1 {
		if err := g.cache.EnsureTTL(ctx, key, g.cfg.CaptchaInterval); err != nil {
			return fmt.Errorf("restore attempt counter ttl: %w", err)
		}
	}
	return nil
}

// AttemptCount returns the current value of the counter for ip.
func (g *LoginAttemptGuard) AttemptCount(ctx context.Context, ip string) (int64, error) {
	return g.cache.Get(ctx, attemptKey(ip))
}

// ValidateCredentials checks the shape of the submitted credentials and
// returns a validation LoginError describing the first problem.
func (g *LoginAttemptGuard) ValidateCredentials(name, password string) error {
	err := g.validate.Struct(credentials{Name: name, Password: password})
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return NewValidationError(err.Error())
	}
	return NewValidationError(validationMessage(fieldErrs[0]))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s 字段必须填写", fe.Field())
	case "min":
		return fmt.Sprintf("%s 字段最少%s个字符", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s 字段最多%s个字符", fe.Field(), fe.Param())
	case "alpha_num":
		return fmt.Sprintf("%s 字段必须是字符和密码的组合", fe.Field())
	default:
		return fmt.Sprintf("%s 字段格式不正确", fe.Field())
	}
}

// TypeErrorMessage is the message for a field submitted with a non-string
// value.
func TypeErrorMessage(field string) string {
	return fmt.Sprintf("%s 字段必须是字符型", field)
}

// IsLockedOut reports whether name and ip have used up their failed
// attempts. When locked it also returns the seconds until the lockout
// lifts and fires the lockout hooks.
func (g *LoginAttemptGuard) IsLockedOut(ctx context.Context, name, ip string) (bool, int, error) {
	key := ThrottleKey(name, ip)

	locked, err := g.limiter.TooManyAttempts(ctx, key, g.cfg.MaxAttempts)
	if err != nil {
		return false, 0, fmt.Errorf("check lockout: %w", err)
	}
	if !locked {
		return false, 0, nil
	}

	retryAfter, err := g.limiter.AvailableIn(ctx, key)
	if err != nil {
		return false, 0, fmt.Errorf("lockout remaining: %w", err)
	}

	g.fireLockoutEvent(LockoutEvent{Name: name, IP: ip, Key: key, RetryAfter: retryAfter})
	return true, retryAfter, nil
}

func (g *LoginAttemptGuard) fireLockoutEvent(ev LockoutEvent) {
	g.log.Warn().
		Str("throttle_key", ev.Key).
		Str("ip", ev.IP).
		Int("retry_after", ev.RetryAfter).
		Msg("login locked out")

	g.mu.RLock()
	hooks := g.onLockout
	g.mu.RUnlock()
	for _, fn := range hooks {
		fn(ev)
	}
}

// RecordFailure counts a failed login against name and ip.
func (g *LoginAttemptGuard) RecordFailure(ctx context.Context, name, ip string) error {
	if _, err := g.limiter.Hit(ctx, ThrottleKey(name, ip), g.cfg.Decay); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// RecordSuccess forgets earlier failures for name and ip.
func (g *LoginAttemptGuard) RecordSuccess(ctx context.Context, name, ip string) error {
	if err := g.limiter.Clear(ctx, ThrottleKey(name, ip)); err != nil {
		return fmt.Errorf("clear failures: %w", err)
	}
	return nil
}
