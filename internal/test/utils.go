package test

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Stewz00/go-login-guard/internal/interfaces"
	"github.com/Stewz00/go-login-guard/internal/model"
	"github.com/Stewz00/go-login-guard/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// MockDB implements a mock database for testing
type MockDB struct {
	mu       sync.Mutex
	users    map[int64]*model.User
	roles    map[int64][]model.Role
	colleges map[int64]*model.College
	sessions map[string]bool
}

func NewMockDB() *MockDB {
	return &MockDB{
		users:    make(map[int64]*model.User),
		roles:    make(map[int64][]model.Role),
		colleges: make(map[int64]*model.College),
		sessions: make(map[string]bool),
	}
}

// MockUserRepository implements the interfaces.UserRepository interface
type MockUserRepository struct {
	db *MockDB
}

// Verify that MockUserRepository implements UserRepository interface
var _ interfaces.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		db: NewMockDB(),
	}
}

// AddUser stores a user whose password is hashed with the minimum bcrypt cost
func (r *MockUserRepository) AddUser(name, password string) *model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	user, err := r.CreateUser(context.Background(), name, string(hash), false)
	if err != nil {
		panic(err)
	}
	return user
}

// SetRoles attaches roles to a user
func (r *MockUserRepository) SetRoles(userID int64, roles []model.Role) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.roles[userID] = roles
}

// AddCollege stores a college
func (r *MockUserRepository) AddCollege(college model.College) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := college
	r.db.colleges[c.ID] = &c
}

// SessionCount returns how many sessions were created
func (r *MockUserRepository) SessionCount() int {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.sessions)
}

// CreateUser mocks creating a new user
func (r *MockUserRepository) CreateUser(ctx context.Context, name, passwordHash string, isSuperAdmin bool) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Name == name {
			return nil, repository.ErrDuplicateName
		}
	}

	now := time.Now()
	user := &model.User{
		ID:           int64(len(r.db.users) + 1),
		Name:         name,
		Password:     passwordHash,
		IsSuperAdmin: isSuperAdmin,
		Created:      now,
		Updated:      now,
	}
	r.db.users[user.ID] = user
	return user, nil
}

// GetUserByName mocks retrieving a user by name
func (r *MockUserRepository) GetUserByName(ctx context.Context, name string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Name == name {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// GetUserByID mocks retrieving a user by ID
func (r *MockUserRepository) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// FindUsersByIDs mocks a WHERE id IN (...) lookup
func (r *MockUserRepository) FindUsersByIDs(ctx context.Context, userIDs []int64) ([]model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var users []model.User
	seen := make(map[int64]bool)
	for _, id := range userIDs {
		if u, ok := r.db.users[id]; ok && !seen[id] {
			seen[id] = true
			users = append(users, model.User{ID: u.ID, Name: u.Name})
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// GetUserRoles mocks loading a user's roles
func (r *MockUserRepository) GetUserRoles(ctx context.Context, userID int64) ([]model.Role, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.roles[userID], nil
}

// GetCollege mocks loading a college
func (r *MockUserRepository) GetCollege(ctx context.Context, collegeID int64) (*model.College, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.colleges[collegeID]
	if !ok {
		return nil, repository.ErrCollegeNotFound
	}
	return c, nil
}

// UpdateLastLogin mocks updating the last login time
func (r *MockUserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if u, ok := r.db.users[userID]; ok {
		now := time.Now()
		u.LastLogin = &now
	}
	return nil
}

// CreateSession mocks creating a new session
func (r *MockUserRepository) CreateSession(ctx context.Context, userID int64, tokenID string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.sessions[tokenID] = true
	return nil
}

// RevokeSession mocks revoking a session
func (r *MockUserRepository) RevokeSession(ctx context.Context, tokenID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.sessions[tokenID]; !exists {
		return repository.ErrSessionNotFound
	}
	r.db.sessions[tokenID] = false
	return nil
}

// IsSessionValid mocks checking if a session is valid
func (r *MockUserRepository) IsSessionValid(ctx context.Context, tokenID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	valid, exists := r.db.sessions[tokenID]
	if !exists {
		return false, nil
	}
	return valid, nil
}

// StubCaptcha implements interfaces.CaptchaVerifier with fixed answers
type StubCaptcha struct {
	mu      sync.Mutex
	answers map[string]string
	next    int
	Checks  int
}

var _ interfaces.CaptchaVerifier = (*StubCaptcha)(nil)

func NewStubCaptcha() *StubCaptcha {
	return &StubCaptcha{answers: make(map[string]string)}
}

// Issue hands out challenges whose answer is always "12345"
func (c *StubCaptcha) Issue(ctx context.Context) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++
	id := "challenge-" + strconv.Itoa(c.next)
	c.answers[id] = "12345"
	return id, "data:image/png;base64,AAAA", nil
}

// Verify checks and consumes a challenge
func (c *StubCaptcha) Verify(ctx context.Context, challengeID, answer string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Checks++
	want, ok := c.answers[challengeID]
	delete(c.answers, challengeID)
	return ok && answer != "" && want == answer
}
