package transformer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Stewz00/go-login-guard/internal/interfaces"
	"github.com/Stewz00/go-login-guard/internal/model"
	"github.com/Stewz00/go-login-guard/internal/repository"
)

const timeLayout = "2006-01-02 15:04:05"

const (
	IncludeRoles   = "roles"
	IncludeCollege = "college"
)

// Resource wraps an included relation the way the API nests it.
type Resource[T any] struct {
	Data T `json:"data"`
}

type RolePayload struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}

type CollegePayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type UserPayload struct {
	ID           int64                      `json:"id"`
	Name         string                     `json:"name"`
	Phone        string                     `json:"phone"`
	Email        string                     `json:"email"`
	Gender       bool                       `json:"gender"`
	Picture      string                     `json:"picture"`
	Nickname     string                     `json:"nickname"`
	IsSuperAdmin bool                       `json:"is_super_admin"`
	GenderStr    string                     `json:"gender_str"`
	CreatedAt    string                     `json:"created_at"`
	UpdatedAt    string                     `json:"updated_at"`
	Roles        *Resource[[]RolePayload]   `json:"roles,omitempty"`
	College      *Resource[*CollegePayload] `json:"college,omitempty"`
}

// UserTransformer shapes users for API responses and loads requested
// relations.
type UserTransformer struct {
	userRepo interfaces.UserRepository
}

func NewUserTransformer(userRepo interfaces.UserRepository) *UserTransformer {
	return &UserTransformer{userRepo: userRepo}
}

// ParseIncludes splits an include query value such as "roles,college".
// Unknown names are dropped.
func ParseIncludes(raw string) map[string]bool {
	includes := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == IncludeRoles || name == IncludeCollege {
			includes[name] = true
		}
	}
	return includes
}

func genderStr(female bool) string {
	if female {
		return "女"
	}
	return "男"
}

func (t *UserTransformer) Transform(ctx context.Context, user *model.User, includes map[string]bool) (*UserPayload, error) {
	payload := &UserPayload{
		ID:           user.ID,
		Name:         user.Name,
		Phone:        user.Phone,
		Email:        user.Email,
		Gender:       user.Gender,
		Picture:      user.Picture,
		Nickname:     user.Nickname,
		IsSuperAdmin: user.IsSuperAdmin,
		GenderStr:    genderStr(user.Gender),
		CreatedAt:    user.Created.Format(timeLayout),
		UpdatedAt:    user.Updated.Format(timeLayout),
	}

	if includes[IncludeRoles] {
		roles, err := t.userRepo.GetUserRoles(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("load roles: %w", err)
		}
		data := make([]RolePayload, 0, len(roles))
		for _, r := range roles {
			data = append(data, RolePayload{
				ID:          r.ID,
				Name:        r.Name,
				DisplayName: r.DisplayName,
				CreatedAt:   r.Created.Format(timeLayout),
			})
		}
		payload.Roles = &Resource[[]RolePayload]{Data: data}
	}

	if includes[IncludeCollege] {
		college, err := t.college(ctx, user)
		if err != nil {
			return nil, err
		}
		payload.College = &Resource[*CollegePayload]{Data: college}
	}

	return payload, nil
}

func (t *UserTransformer) college(ctx context.Context, user *model.User) (*CollegePayload, error) {
	if user.CollegeID == nil {
		return nil, nil
	}
	c, err := t.userRepo.GetCollege(ctx, *user.CollegeID)
	if errors.Is(err, repository.ErrCollegeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load college: %w", err)
	}
	return &CollegePayload{ID: c.ID, Name: c.Name}, nil
}
