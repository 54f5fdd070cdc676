package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is a persisted admin login. The token is the only thing the
// browser holds; it proves a prior password check and nothing more.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ValidAt reports whether the session is still usable at t.
func (s *Session) ValidAt(t time.Time) bool {
	return t.Before(s.ExpiresAt)
}
