package auth

import "time"

// LoginRequest is the request payload for the admin login
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// SuccessResponse is returned by login and logout.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// SessionResponse describes the caller's session state.
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// CleanupResponse is the cron sweep result.
type CleanupResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Deleted   int64  `json:"deleted"`
	Timestamp string `json:"timestamp"`
}
