// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"stressless/internal/domain"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrReservedUsername is returned when registering the administrator's name.
	ErrReservedUsername = errors.New("username is reserved")
	// ErrMissingCredentials is returned when username or password is blank.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrForbidden is returned when a user lacks the role an operation needs.
	ErrForbidden = errors.New("forbidden")
)

// DefaultSessionTTL is how long a login stays valid when not configured.
const DefaultSessionTTL = 24 * time.Hour

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token  string              `json:"-"`
	User   *domain.User        `json:"user"`
	Earned []EarnedAchievement `json:"earned"`
}

// AuthService handles registration, authentication and session management.
type AuthService struct {
	users         domain.UserRepository
	sessions      domain.AuthSessionRepository
	history       domain.HistoryRepository
	achievements  *AchievementService
	adminUsername string
	ttl           time.Duration
	opts          options
}

// NewAuthService creates a new authentication service. adminUsername is
// reserved for the administrator account created by EnsureAdmin.
func NewAuthService(
	users domain.UserRepository,
	sessions domain.AuthSessionRepository,
	history domain.HistoryRepository,
	achievements *AchievementService,
	adminUsername string,
	ttl time.Duration,
	opts ...Option,
) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		users:         users,
		sessions:      sessions,
		history:       history,
		achievements:  achievements,
		adminUsername: adminUsername,
		ttl:           ttl,
		opts:          newOptions(opts),
	}
}

// Register creates a standard user and seeds their achievement statuses.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if s.adminUsername != "" && strings.EqualFold(username, s.adminUsername) {
		return nil, ErrReservedUsername
	}
	if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, domain.ErrUserExists
	}
	return s.createUser(ctx, username, password, domain.RoleStandard)
}

func (s *AuthService) createUser(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	hash := ""
	if password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(b)
	}
	user, err := s.users.Create(ctx, domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.opts.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.achievements.Seed(ctx, user.ID); err != nil {
		return nil, err
	}
	s.opts.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// Login authenticates a user, records the login and evaluates achievements.
// An *EvaluationError may accompany a non-nil result; the login itself succeeded.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil || user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

// LoginWithUser creates a session for an already authenticated user (e.g. via SSO).
func (s *AuthService) LoginWithUser(ctx context.Context, username string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		// Auto-provision if missing. SSO users have no local password.
		user, err = s.createUser(ctx, username, "", domain.RoleStandard)
		if err != nil {
			// Try getting again if creation failed due to race (e.g. unique constraint)
			user, err = s.users.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
		}
	}
	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*LoginResult, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	unlock, err := s.opts.locker.Lock(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.opts.now()
	if err := s.sessions.Create(ctx, user.ID, token, now.Add(s.ttl)); err != nil {
		return nil, domain.Persistence("create auth session", err)
	}
	if err := s.history.SaveLoginEvent(ctx, user.ID, now); err != nil {
		return nil, domain.Persistence("save login event", err)
	}

	res := &LoginResult{Token: token, User: user}
	res.Earned, err = s.achievements.evaluateLocked(ctx, user.ID, TriggerLogin)
	return res, err
}

// SessionTTL is the lifetime of sessions created by Login.
func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks that a session token is valid and returns its user.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	if s.opts.now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// EnsureAdmin creates the administrator account if it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, password string) error {
	if s.adminUsername == "" {
		return nil
	}
	if u, err := s.users.GetByUsername(ctx, s.adminUsername); err == nil && u != nil {
		return nil
	}
	if password == "" {
		return errors.New("admin password is required to create the admin account")
	}
	_, err := s.createUser(ctx, s.adminUsername, password, domain.RoleAdmin)
	return err
}

// ListUsers returns every account. Only administrators may call it.
func (s *AuthService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.users.List(ctx)
}

// GetUser returns one account. Only administrators may call it.
func (s *AuthService) GetUser(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// DeleteUser removes an account and everything it owns. Administrators
// cannot be deleted.
func (s *AuthService) DeleteUser(ctx context.Context, actor *domain.User, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return ErrUserNotFound
	}
	if target.IsAdmin() {
		return ErrForbidden
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return domain.Persistence("delete user", err)
	}
	s.opts.logger.Info("user deleted", zap.String("user_id", id), zap.String("by", actor.ID))
	return nil
}

// PurgeExpiredSessions deletes every session past its expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
