package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Stewz00/go-login-guard/internal/interfaces"
	"github.com/Stewz00/go-login-guard/internal/model"
	"github.com/rs/zerolog"
)

type LoginRequest struct {
	Name       string
	Password   string
	Captcha    string
	CaptchaKey string
	IP         string
}

type LoginResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// LoginService runs a login request through validation, lockout, captcha
// and credential checks.
type LoginService struct {
	guard    *LoginAttemptGuard
	verifier interfaces.CredentialVerifier
	issuer   interfaces.SessionIssuer
	captcha  interfaces.CaptchaVerifier
	log      zerolog.Logger
}

func NewLoginService(
	guard *LoginAttemptGuard,
	verifier interfaces.CredentialVerifier,
	issuer interfaces.SessionIssuer,
	captcha interfaces.CaptchaVerifier,
	log zerolog.Logger,
) *LoginService {
	return &LoginService{
		guard:    guard,
		verifier: verifier,
		issuer:   issuer,
		captcha:  captcha,
		log:      log,
	}
}

// ProcessLogin authenticates req. Rejections are returned as *LoginError;
// any other error is an infrastructure failure.
func (s *LoginService) ProcessLogin(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := s.guard.ValidateCredentials(req.Name, req.Password); err != nil {
		return nil, err
	}

	locked, retryAfter, err := s.guard.IsLockedOut(ctx, req.Name, req.IP)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, newLockoutError(retryAfter)
	}

	if err := s.guard.RecordAttempt(ctx, req.IP); err != nil {
		return nil, err
	}

	needCaptcha, err := s.guard.ShouldRequireCaptcha(ctx, req.IP)
	if err != nil {
		return nil, err
	}
	if needCaptcha {
		answer := strings.TrimSpace(req.Captcha)
		if answer == "" {
			return nil, &LoginError{Kind: ErrCaptcha, Message: MsgCaptchaRequired}
		}
		if !s.captcha.Verify(ctx, req.CaptchaKey, answer) {
			return nil, &LoginError{Kind: ErrCaptcha, Message: MsgCaptchaIncorrect}
		}
	}

	user, err := s.verifier.Attempt(ctx, req.Name, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			return nil, fmt.Errorf("verify credentials: %w", err)
		}
		if err := s.guard.RecordFailure(ctx, req.Name, req.IP); err != nil {
			return nil, err
		}
		s.log.Info().Str("ip", req.IP).Msg("login failed")
		return nil, &LoginError{Kind: ErrInvalidCredentials, Message: MsgLoginFailed}
	}

	if err := s.guard.RecordSuccess(ctx, req.Name, req.IP); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.issuer.IssueSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("ip", req.IP).Msg("login succeeded")
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// NeedVerificationCode reports whether the next login from ip must carry a
// captcha.
func (s *LoginService) NeedVerificationCode(ctx context.Context, ip string) (bool, error) {
	return s.guard.ShouldRequireCaptcha(ctx, ip)
}

// IssueCaptcha creates a new captcha challenge.
func (s *LoginService) IssueCaptcha(ctx context.Context) (string, string, error) {
	id, image, err := s.captcha.Issue(ctx)
	if err != nil {
		return "", "", fmt.Errorf("issue captcha: %w", err)
	}
	return id, image, nil
}
