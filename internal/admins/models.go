// Package admins manages the dashboard admin roster. Admin emails are the
// recipients of new-lead notifications.
package admins

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAdminNotFound    = errors.New("admin not found")
	ErrAdminEmailExists = errors.New("an admin with this email already exists")
)

// Admin is a roster entry.
type Admin struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest is the body of POST /api/dashboard/admins
type CreateRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// UpdateRequest is the body of PATCH /api/dashboard/admins/:id
type UpdateRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,min=1"`
	Email    *string `json:"email" binding:"omitempty,email"`
}
