package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/venturelens/venturelens/internal/rbac"
)

const bcryptCost = 12

var ErrInvalidCredentials = errors.New("invalid credentials")

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserStore checks logins against the users table. The admin account comes
// from config and never needs a row.
type UserStore struct {
	db            *sql.DB
	adminUser     string
	adminPassHash string
}

func NewUserStore(db *sql.DB, adminUser, adminPassHash string) *UserStore {
	return &UserStore{db: db, adminUser: adminUser, adminPassHash: adminPassHash}
}

// HashPassword returns a bcrypt hash suitable for users.password_hash.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *UserStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}
	if s.adminPassHash != "" && username == s.adminUser {
		if bcrypt.CompareHashAndPassword([]byte(s.adminPassHash), []byte(password)) != nil {
			return User{}, ErrInvalidCredentials
		}
		return User{ID: "admin", Username: username, Role: rbac.RoleAdmin}, nil
	}

	var u User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, role, password_hash FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &u.Role, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Create inserts a founder or investor account.
func (s *UserStore) Create(ctx context.Context, username, password, role string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, errors.New("username required")
	}
	if role != rbac.RoleFounder && role != rbac.RoleInvestor {
		return User{}, fmt.Errorf("invalid role: %s", role)
	}
	if len(password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	u := User{ID: uuid.NewString(), Username: username, Role: role}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Username, hash, u.Role, time.Now().Unix())
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}
