package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nexo-rrhh/portal/internal/store"
	"github.com/nexo-rrhh/portal/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetActiveByID(ctx context.Context, id int) (types.User, error)
	GetActiveByUsername(ctx context.Context, username string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	SetActive(ctx context.Context, id int, active bool) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo     UserRepository
	hashCost int
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo, hashCost: bcrypt.DefaultCost}
}

// Create hashes the password and stores a new active user. A taken username
// yields store.ErrDuplicateUsername.
func (s *UserService) Create(ctx context.Context, username, password string, role types.Role) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return types.User{}, ErrInvalidUsername
	}
	if password == "" {
		return types.User{}, ErrInvalidPassword
	}
	if !role.Valid() {
		return types.User{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, types.User{
		Username:     username,
		PasswordHash: string(hashed),
		Role:         role,
		IsActive:     true,
	})
}

func (s *UserService) FindActiveByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetActiveByUsername(ctx, username)
}

func (s *UserService) FindActiveByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetActiveByID(ctx, id)
}

// List returns every user, inactive ones included, ordered by id.
func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) SetActive(ctx context.Context, id int, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// EnsureBootstrapAdmin creates a SUPERADMIN when no user exists yet. It
// reports whether an account was created.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if _, err := s.Create(ctx, username, password, types.RoleSuperAdmin); err != nil {
		// Another process won the race.
		if errors.Is(err, store.ErrDuplicateUsername) {
			return false, nil
		}
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	return true, nil
}
