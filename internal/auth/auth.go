package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"dashboard-sync-service/internal/logger"
	"dashboard-sync-service/internal/rbac"
	"dashboard-sync-service/internal/store"
)

var (
	ErrUsernameTaken   = errors.New("username already exists")
	ErrUnknownUser     = errors.New("username not found")
	ErrInvalidPassword = errors.New("incorrect password")
	ErrInvalidInput    = errors.New("username and password are required")
)

// UserStore is the slice of the store the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *store.User) error
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
}

type Service struct {
	users UserStore
	cost  int
}

func NewService(users UserStore, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{users: users, cost: cost}
}

// Register creates a user with a bcrypt hash of password. Surrounding spaces
// are stripped from the stored username; Authenticate does not strip them.
// The username check runs first; the UNIQUE index catches a concurrent
// registration.
func (s *Service) Register(ctx context.Context, username, password string, role rbac.Role) (*store.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if _, err := rbac.ParseRole(string(role)); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &store.User{Username: username, PasswordHash: string(hash), Role: string(role)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if again, lookupErr := s.users.GetUserByUsername(ctx, username); lookupErr == nil && again != nil {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Log.Info("User registered", zap.String("username", username), zap.String("role", user.Role))
	return user, nil
}

// Authenticate checks the password of username, matched exactly as given.
// Unknown users and wrong passwords are reported separately.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*store.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrUnknownUser
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidPassword
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}
	return user, nil
}
