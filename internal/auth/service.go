// Package auth handles account registration, password verification and
// cookie sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/couchcryptid/flood-watch-api/internal/observability"
	"github.com/google/uuid"
)

// UserStore persists accounts. CreateUser also creates default preferences.
type UserStore interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	UserByID(ctx context.Context, id string) (domain.User, error)
	UserByUsername(ctx context.Context, username string) (domain.User, error)
}

// Registration is the input to Service.Register.
type Registration struct {
	Username string
	Password string
	Email    string
}

// Service registers and authenticates users.
type Service struct {
	users   UserStore
	metrics *observability.Metrics
	logger  *slog.Logger
	cost    int
	compare func(hash, password string) bool

	decoyOnce sync.Once
	decoy     string
}

// NewService creates a Service hashing with bcrypt's default cost.
func NewService(users UserStore, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{users: users, metrics: metrics, logger: logger, compare: CheckPassword}
}

// decoyHash is compared against when the username is unknown so a login
// costs one bcrypt comparison either way.
func (s *Service) decoyHash() string {
	s.decoyOnce.Do(func() {
		hash, err := HashPassword(uuid.NewString(), s.cost)
		if err != nil {
			s.logger.Error("create decoy password hash", "error", err)
			return
		}
		s.decoy = hash
	})
	return s.decoy
}

// Register validates the credentials and creates the account. A taken
// username returns domain.ErrConflict.
func (s *Service) Register(ctx context.Context, reg Registration) (domain.User, error) {
	username := strings.TrimSpace(reg.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return domain.User{}, err
	}
	if err := domain.ValidatePassword(reg.Password); err != nil {
		return domain.User{}, err
	}

	hash, err := HashPassword(reg.Password, s.cost)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.users.CreateUser(ctx, domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.TrimSpace(reg.Email),
		PasswordHash: hash,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}

	s.metrics.UsersRegistered.Inc()
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords both return domain.ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.users.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		s.compare(s.decoyHash(), password)
		return domain.User{}, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("authenticate: %w", err)
	}
	if !s.compare(user.PasswordHash, password) {
		return domain.User{}, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return user, nil
}

// User loads the account bound to a session. A session whose account no
// longer exists is unauthorized.
func (s *Service) User(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.UserByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("session user %s: %w", id, domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
