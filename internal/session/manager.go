// Package session implements cookie-backed admin sessions stored in
// PostgreSQL. Tokens are opaque random strings; validity is decided only
// by the stored expiry.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leadlms/internal/metrics"
)

// TokenBytes is the amount of randomness in a session token (256 bits).
const TokenBytes = 32

var (
	// ErrNoSession is the parent of every "not logged in" outcome.
	ErrNoSession = errors.New("no session")
	// ErrSessionNotFound is returned when no session matches the token
	ErrSessionNotFound = fmt.Errorf("%w: session not found", ErrNoSession)
	// ErrSessionExpired is returned when a session has expired
	ErrSessionExpired = fmt.Errorf("%w: session expired", ErrNoSession)
	// ErrMissingToken is returned when no token was presented
	ErrMissingToken = fmt.Errorf("%w: missing session token", ErrNoSession)
)

// Manager defines the interface for session management operations
type Manager interface {
	Create(ctx context.Context) (*Session, error)
	Validate(ctx context.Context, token string) (*Session, error)
	Destroy(ctx context.Context, token string) error
	SweepExpired(ctx context.Context) (int64, error)
}

// manager implements Manager interface
type manager struct {
	store    Store
	duration time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// Option customises a manager.
type Option func(*manager)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *manager) { m.now = now }
}

// WithLogger sets the logger used for lazy cleanup messages.
func WithLogger(logger *slog.Logger) Option {
	return func(m *manager) { m.logger = logger }
}

// NewManager creates a session manager issuing sessions that last duration.
func NewManager(store Store, duration time.Duration, opts ...Option) Manager {
	m := &manager{
		store:    store,
		duration: duration,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create issues and persists a new session.
func (m *manager) Create(ctx context.Context) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	sess := &Session{
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(m.duration),
	}

	if err := m.store.Insert(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return sess, nil
}

// Validate returns the session for token. Every negative outcome wraps
// ErrNoSession; any other error comes from the store. An expired session is
// deleted before ErrSessionExpired is returned.
func (m *manager) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	sess, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if !sess.ValidAt(m.now()) {
		if err := m.store.Delete(ctx, token); err != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		m.logger.Debug("Deleted expired session", "session_id", sess.ID)
		return nil, ErrSessionExpired
	}

	return sess, nil
}

// Destroy removes a session. Destroying an unknown token is not an error.
func (m *manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(ctx, token)
}

// SweepExpired deletes every session that expired before now.
func (m *manager) SweepExpired(ctx context.Context) (int64, error) {
	deleted, err := m.store.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, err
	}
	metrics.SessionsSwept.Add(float64(deleted))
	return deleted, nil
}

// generateToken returns TokenBytes of crypto/rand entropy, hex encoded.
func generateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
