// Package domain contains the core business entities, pure rules, and the
// persistence ports the application depends on.
package domain

import (
	"context"
	"time"
)

// Role distinguishes regular users from administrators.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// User represents an authenticated user in the system.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AuthSession represents an active login session.
type AuthSession struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user User) (*User, error)
	List(ctx context.Context) ([]User, error)
	// Delete removes the user together with every record that references it.
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// AuthSessionRepository defines the port for login session persistence.
type AuthSessionRepository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*AuthSession, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
