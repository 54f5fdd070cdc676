// Package auth implements the shared-password admin login and the
// session housekeeping endpoints.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"leadlms/internal/session"
)

// ErrInvalidPassword is returned when the admin password does not match
var ErrInvalidPassword = errors.New("invalid password")

// Service defines the authentication service interface
type Service interface {
	Login(ctx context.Context, password string) (*session.Session, error)
	Logout(ctx context.Context, token string) error
	Current(ctx context.Context, token string) (*session.Session, error)
}

type service struct {
	password string
	sessions session.Manager
}

// NewService creates an authentication service checking logins against
// password.
func NewService(password string, sessions session.Manager) Service {
	return &service{
		password: password,
		sessions: sessions,
	}
}

// Login issues a new session when password matches.
func (s *service) Login(ctx context.Context, password string) (*session.Session, error) {
	if !secretsEqual(password, s.password) {
		return nil, ErrInvalidPassword
	}

	sess, err := s.sessions.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// Logout destroys the session behind token, if any.
func (s *service) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// Current returns the live session for token. A missing, unknown or
// expired token yields (nil, nil).
func (s *service) Current(ctx context.Context, token string) (*session.Session, error) {
	sess, err := s.sessions.Validate(ctx, token)
	if errors.Is(err, session.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// secretsEqual compares in constant time. An empty secret never matches.
func secretsEqual(presented, secret string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) == 1
}
