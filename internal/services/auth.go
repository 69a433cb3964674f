package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nexo-rrhh/portal/internal/session"
	"github.com/nexo-rrhh/portal/internal/store"
	"github.com/nexo-rrhh/portal/types"
	"golang.org/x/crypto/bcrypt"
)

// AuthService binds sessions to users and resolves the current user.
type AuthService struct {
	users     *UserService
	dummyHash []byte
}

// NewAuthService constructs an AuthService. It precomputes the hash that
// unknown usernames are compared against so both login paths cost one
// bcrypt comparison.
func NewAuthService(users *UserService) (*AuthService, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("nexo-unknown-user"), users.hashCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthService{users: users, dummyHash: dummy}, nil
}

// Login checks the credentials and binds the user to sess. On failure sess
// is left untouched.
func (s *AuthService) Login(ctx context.Context, sess *session.Session, username, password string) (types.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.FindActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}

	sess.Bind(user.ID)
	return user, nil
}

// CurrentUser reloads the bound user from the store. It returns nil when the
// session is anonymous or the user no longer exists or was deactivated.
func (s *AuthService) CurrentUser(ctx context.Context, sess *session.Session) (*types.User, error) {
	if !sess.Authenticated() {
		return nil, nil
	}

	user, err := s.users.FindActiveByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load current user: %w", err)
	}
	return &user, nil
}

// Logout clears every piece of session state.
func (s *AuthService) Logout(sess *session.Session) {
	sess.Clear()
}
