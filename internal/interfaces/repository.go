package interfaces

import (
	"context"
	"time"

	"github.com/Stewz00/go-login-guard/internal/model"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	CreateUser(ctx context.Context, name, passwordHash string, isSuperAdmin bool) (*model.User, error)
	GetUserByName(ctx context.Context, name string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	FindUsersByIDs(ctx context.Context, userIDs []int64) ([]model.User, error)
	GetUserRoles(ctx context.Context, userID int64) ([]model.Role, error)
	GetCollege(ctx context.Context, collegeID int64) (*model.College, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
	CreateSession(ctx context.Context, userID int64, tokenID string, expiresAt time.Time) error
	RevokeSession(ctx context.Context, tokenID string) error
	IsSessionValid(ctx context.Context, tokenID string) (bool, error)
}
