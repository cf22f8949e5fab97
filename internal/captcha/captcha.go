package captcha

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mojocn/base64Captcha"
)

const (
	imageHeight = 80
	imageWidth  = 240
	codeLength  = 5
	maxSkew     = 0.7
	dotCount    = 80

	// DefaultExpiration bounds how long an issued challenge can be answered.
	DefaultExpiration = 10 * time.Minute
)

// Service issues digit image challenges and verifies answers once.
type Service struct {
	captcha *base64Captcha.Captcha
}

// New builds a Service around the given answer store.
func New(store base64Captcha.Store) *Service {
	driver := base64Captcha.NewDriverDigit(imageHeight, imageWidth, codeLength, maxSkew, dotCount)
	return &Service{captcha: base64Captcha.NewCaptcha(driver, store)}
}

// NewMemoryStore keeps answers in process memory.
func NewMemoryStore() base64Captcha.Store {
	return base64Captcha.NewMemoryStore(base64Captcha.GCLimitNumber, DefaultExpiration)
}

// Issue returns a challenge id and a data URI of the rendered image.
func (s *Service) Issue(ctx context.Context) (string, string, error) {
	id, src, _, err := s.captcha.Generate()
	if err != nil {
		return "", "", fmt.Errorf("generate captcha: %w", err)
	}
	return id, src, nil
}

// Verify checks answer against the challenge and consumes it either way.
func (s *Service) Verify(ctx context.Context, challengeID, answer string) bool {
	answer = strings.TrimSpace(answer)
	if challengeID == "" || answer == "" {
		return false
	}
	return s.captcha.Verify(challengeID, answer, true)
}
