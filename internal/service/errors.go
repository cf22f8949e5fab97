package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrCaptcha            = errors.New("captcha required or incorrect")
	ErrLockedOut          = errors.New("too many login attempts")
	ErrInvalidCredentials = errors.New("invalid name or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)

// User-facing messages returned by the login endpoint.
const (
	MsgCaptchaRequired  = "验证码必须填写"
	MsgCaptchaIncorrect = "验证码错误"
	MsgLoginFailed      = "登录失败！请检查用户名和密码是否输入正确。"
)

// LoginError is a login rejection that is safe to show to the client.
// Kind is one of ErrValidation, ErrCaptcha, ErrLockedOut or
// ErrInvalidCredentials.
type LoginError struct {
	Kind       error
	Message    string
	RetryAfter int
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Kind }

func NewValidationError(message string) error {
	return &LoginError{Kind: ErrValidation, Message: message}
}

func newLockoutError(retryAfter int) error {
	return &LoginError{
		Kind:       ErrLockedOut,
		Message:    fmt.Sprintf("请在 %d 秒后重试。", retryAfter),
		RetryAfter: retryAfter,
	}
}
