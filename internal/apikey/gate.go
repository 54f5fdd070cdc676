// Package apikey guards machine-to-machine endpoints with a shared secret
// sent in the x-api-key header.
package apikey

import (
	"crypto/subtle"
	"errors"
	"net/http"
)

// Header carries the key on inbound requests.
const Header = "x-api-key"

var (
	// ErrMissingAPIKey is returned when the header is absent or empty.
	ErrMissingAPIKey = errors.New("api key is required")
	// ErrInvalidAPIKey is returned when the header does not match.
	ErrInvalidAPIKey = errors.New("invalid api key")
)

// Gate compares presented keys against the configured secret.
type Gate struct {
	secret []byte
}

// NewGate returns a Gate for secret. An empty secret rejects everything.
func NewGate(secret string) *Gate {
	return &Gate{secret: []byte(secret)}
}

// Check validates the presented key in constant time.
func (g *Gate) Check(presented string) error {
	if presented == "" {
		return ErrMissingAPIKey
	}
	if len(g.secret) == 0 || subtle.ConstantTimeCompare([]byte(presented), g.secret) != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}

// CheckRequest reads the key from r and validates it.
func (g *Gate) CheckRequest(r *http.Request) error {
	return g.Check(r.Header.Get(Header))
}

// Response maps a Check error to its HTTP status and client-facing message.
func Response(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrMissingAPIKey):
		return http.StatusUnauthorized, "API key is required. Please provide an API key in the '" + Header + "' header."
	default:
		return http.StatusForbidden, "Invalid API key"
	}
}
