package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadlms/internal/database"

	"github.com/jackc/pgx/v5"
)

// Store defines the interface for session persistence
type Store interface {
	Insert(ctx context.Context, s *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// pgStore implements Store on the sessions table
type pgStore struct {
	db database.Service
}

// NewPostgresStore creates a PostgreSQL-backed session store
func NewPostgresStore(db database.Service) Store {
	return &pgStore{db: db}
}

// Insert persists a new session and fills in its generated ID
func (s *pgStore) Insert(ctx context.Context, sess *Session) error {
	query := `
		INSERT INTO sessions (token, created_at, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := s.db.QueryRow(ctx, query, sess.Token, sess.CreatedAt, sess.ExpiresAt).Scan(&sess.ID); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get looks a session up by token. A missing row yields ErrSessionNotFound.
func (s *pgStore) Get(ctx context.Context, token string) (*Session, error) {
	query := `SELECT id, token, created_at, expires_at FROM sessions WHERE token = $1`

	var sess Session
	err := s.db.QueryRow(ctx, query, token).Scan(&sess.ID, &sess.Token, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

// Delete removes the session with the given token, if any
func (s *pgStore) Delete(ctx context.Context, token string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session whose expiry is strictly before now
func (s *pgStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
