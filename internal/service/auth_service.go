package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Stewz00/go-login-guard/internal/interfaces"
	"github.com/Stewz00/go-login-guard/internal/model"
	"github.com/Stewz00/go-login-guard/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type AuthService struct {
	userRepo    interfaces.UserRepository
	jwtSecret   []byte
	tokenExpiry time.Duration
	Now         func() time.Time
}

var (
	_ interfaces.CredentialVerifier = (*AuthService)(nil)
	_ interfaces.SessionIssuer      = (*AuthService)(nil)
)

// NewAuthService creates a new authentication service
func NewAuthService(userRepo interfaces.UserRepository, jwtSecret string, tokenExpiry time.Duration) *AuthService {
	if tokenExpiry <= 0 {
		tokenExpiry = 24 * time.Hour
	}
	return &AuthService{
		userRepo:    userRepo,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: tokenExpiry,
		Now:         time.Now,
	}
}

// HashPassword hashes a plaintext password for storage
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Attempt resolves name and password to a user. Unknown names and wrong
// passwords both yield ErrInvalidCredentials.
func (s *AuthService) Attempt(ctx context.Context, name, password string) (*model.User, error) {
	user, err := s.userRepo.GetUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// IssueSession signs a token for user and records the session
func (s *AuthService) IssueSession(ctx context.Context, user *model.User) (string, time.Time, error) {
	now := s.Now()
	expiresAt := now.Add(s.tokenExpiry)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	if err := s.userRepo.CreateSession(ctx, user.ID, claims.ID, expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		return "", time.Time{}, fmt.Errorf("update last login: %w", err)
	}

	return tokenString, expiresAt, nil
}

func (s *AuthService) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateToken validates a JWT token and returns the user claims
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*jwt.RegisteredClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	// Check if token is revoked
	if valid, err := s.userRepo.IsSessionValid(ctx, claims.ID); err != nil {
		return nil, err
	} else if !valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// LogoutUser revokes the user's token
func (s *AuthService) LogoutUser(ctx context.Context, tokenString string) error {
	claims, err := s.ValidateToken(ctx, tokenString)
	if err != nil {
		return err
	}
	return s.userRepo.RevokeSession(ctx, claims.ID)
}

// CurrentUser loads the user a validated token belongs to
func (s *AuthService) CurrentUser(ctx context.Context, claims *jwt.RegisteredClaims) (*model.User, error) {
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// BootstrapAdmin creates a super admin account unless the name is taken
func (s *AuthService) BootstrapAdmin(ctx context.Context, name, password string) (bool, error) {
	if name == "" || password == "" {
		return false, nil
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.userRepo.CreateUser(ctx, name, hashed, true); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
