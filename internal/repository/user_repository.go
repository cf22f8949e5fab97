package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Stewz00/go-login-guard/internal/database"
	"github.com/Stewz00/go-login-guard/internal/interfaces"
	"github.com/Stewz00/go-login-guard/internal/model"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// Common errors that can be returned by the repository
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateName   = errors.New("user name already exists")
	ErrCollegeNotFound = errors.New("college not found")
	ErrSessionNotFound = errors.New("session not found")
)

const userColumns = `id, name, password_hash, phone, email, gender, picture, nickname,
	is_super_admin, college_id, created_at, updated_at, last_login`

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *database.DB
}

// Verify that UserRepositoryImpl implements UserRepository interface
var _ interfaces.UserRepository = (*UserRepositoryImpl)(nil)

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *database.DB) interfaces.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Password, &user.Phone, &user.Email, &user.Gender,
		&user.Picture, &user.Nickname, &user.IsSuperAdmin, &user.CollegeID,
		&user.Created, &user.Updated, &user.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new user in the database
func (r *UserRepositoryImpl) CreateUser(ctx context.Context, name, passwordHash string, isSuperAdmin bool) (*model.User, error) {
	var user model.User
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO users (name, password_hash, is_super_admin)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, is_super_admin, created_at, updated_at`,
		name, passwordHash, isSuperAdmin).Scan(&user.ID, &user.Name, &user.IsSuperAdmin, &user.Created, &user.Updated)

	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	return &user, nil
}

// GetUserByName retrieves a user by login name
func (r *UserRepositoryImpl) GetUserByName(ctx context.Context, name string) (*model.User, error) {
	user, err := scanUser(r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE name = $1`,
		name))

	if err == pgx.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by primary key
func (r *UserRepositoryImpl) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	user, err := scanUser(r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE id = $1`,
		userID))

	if err == pgx.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindUsersByIDs returns the id and name of every user in userIDs
func (r *UserRepositoryImpl) FindUsersByIDs(ctx context.Context, userIDs []int64) ([]model.User, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, name
		 FROM users
		 WHERE id = ANY($1)
		 ORDER BY id`,
		userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUserRoles returns the user's roles, oldest first
func (r *UserRepositoryImpl) GetUserRoles(ctx context.Context, userID int64) ([]model.Role, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT r.id, r.name, r.display_name, r.created_at
		 FROM roles r
		 JOIN role_user ru ON ru.role_id = r.id
		 WHERE ru.user_id = $1
		 ORDER BY r.created_at ASC, r.id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.DisplayName, &role.Created); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetCollege retrieves a college by primary key
func (r *UserRepositoryImpl) GetCollege(ctx context.Context, collegeID int64) (*model.College, error) {
	var college model.College
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name FROM colleges WHERE id = $1`,
		collegeID).Scan(&college.ID, &college.Name)

	if err == pgx.ErrNoRows {
		return nil, ErrCollegeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &college, nil
}

// UpdateLastLogin records the time of the latest successful login
func (r *UserRepositoryImpl) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users
		 SET last_login = CURRENT_TIMESTAMP
		 WHERE id = $1`,
		userID)
	return err
}

// CreateSession creates a new session for a user
func (r *UserRepositoryImpl) CreateSession(ctx context.Context, userID int64, tokenID string, expiresAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO sessions (user_id, token_id, expires_at)
		 VALUES ($1, $2, $3)`,
		userID, tokenID, expiresAt)
	return err
}

// RevokeSession marks a session as revoked
func (r *UserRepositoryImpl) RevokeSession(ctx context.Context, tokenID string) error {
	result, err := r.db.Pool.Exec(ctx,
		`UPDATE sessions
		 SET is_revoked = true
		 WHERE token_id = $1`,
		tokenID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// IsSessionValid checks if a session is valid and not expired
func (r *UserRepositoryImpl) IsSessionValid(ctx context.Context, tokenID string) (bool, error) {
	var isRevoked bool
	var expiresAt time.Time

	err := r.db.Pool.QueryRow(ctx,
		`SELECT is_revoked, expires_at
		 FROM sessions
		 WHERE token_id = $1`,
		tokenID).Scan(&isRevoked, &expiresAt)

	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return !isRevoked && time.Now().Before(expiresAt), nil
}
