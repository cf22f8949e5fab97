package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Stewz00/go-login-guard/internal/helpers"
	"github.com/Stewz00/go-login-guard/internal/interfaces"
	"github.com/Stewz00/go-login-guard/internal/model"
	"github.com/Stewz00/go-login-guard/internal/repository"
)

// PersonnelSign marks a task whose lead officials are all staff.
const PersonnelSign = "all"

const allPersonnelName = "全体人员"

type OfficialService struct {
	userRepo interfaces.UserRepository
}

func NewOfficialService(userRepo interfaces.UserRepository) *OfficialService {
	return &OfficialService{userRepo: userRepo}
}

// ErrInvalidUserID is returned when the field holds a non-numeric id.
var ErrInvalidUserID = errors.New("invalid user id")

// LeadOfficials resolves a comma separated list of user ids, keeping the
// order in which they are listed. A nil element in the result stands for a
// single id that matched no user.
func (s *OfficialService) LeadOfficials(ctx context.Context, field string) ([]*model.Official, error) {
	parts := strings.Split(field, ",")
	first := strings.TrimSpace(parts[0])
	if first == "" {
		return nil, nil
	}

	if strings.ToLower(first) == PersonnelSign {
		return []*model.Official{{ID: PersonnelSign, Name: allPersonnelName}}, nil
	}

	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidUserID, p)
		}
		ids = append(ids, id)
	}

	if len(ids) == 1 {
		user, err := s.userRepo.GetUserByID(ctx, ids[0])
		if errors.Is(err, repository.ErrUserNotFound) {
			return []*model.Official{nil}, nil
		}
		if err != nil {
			return nil, err
		}
		return []*model.Official{toOfficial(*user)}, nil
	}

	users, err := s.userRepo.FindUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	officials := make([]*model.Official, 0, len(users))
	for _, u := range users {
		officials = append(officials, toOfficial(u))
	}
	return orderByIDs(officials, ids), nil
}

// orderByIDs moves officials into the order of ids. Unknown and repeated
// ids are skipped.
func orderByIDs(officials []*model.Official, ids []int64) []*model.Official {
	next := 0
	for _, id := range ids {
		want := strconv.FormatInt(id, 10)
		for k := next; k < len(officials); k++ {
			if officials[k].ID == want {
				helpers.Swap(officials, next, k)
				next++
				break
			}
		}
	}
	return officials
}

func toOfficial(u model.User) *model.Official {
	return &model.Official{ID: strconv.FormatInt(u.ID, 10), Name: u.Name}
}
