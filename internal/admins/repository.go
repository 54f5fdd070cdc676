package admins

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"leadlms/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EmailConstraint is the unique constraint on admins.email.
const EmailConstraint = "admins_email_key"

// Store defines admin persistence.
type Store interface {
	List(ctx context.Context) ([]Admin, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	Create(ctx context.Context, fullName, email string) (*Admin, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Admin, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListEmails(ctx context.Context) ([]string, error)
}

// Repository implements Store on PostgreSQL.
type Repository struct {
	db database.Service
}

// NewRepository creates a new admins repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

func scanAdmin(row pgx.Row) (*Admin, error) {
	a := &Admin{}
	if err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns every admin, newest first.
func (r *Repository) List(ctx context.Context) ([]Admin, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, full_name, email, created_at, updated_at
		FROM admins
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	admins := []Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admins: %w", err)
	}
	return admins, nil
}

// GetByID retrieves a single admin
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Admin, error) {
	a, err := scanAdmin(r.db.QueryRow(ctx, `
		SELECT id, full_name, email, created_at, updated_at FROM admins WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return a, nil
}

// Create inserts an admin
func (r *Repository) Create(ctx context.Context, fullName, email string) (*Admin, error) {
	a, err := scanAdmin(r.db.QueryRow(ctx, `
		INSERT INTO admins (full_name, email)
		VALUES ($1, $2)
		RETURNING id, full_name, email, created_at, updated_at
	`, fullName, email))
	if database.IsUniqueViolation(err, EmailConstraint) {
		return nil, ErrAdminEmailExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return a, nil
}

// Update applies the non-nil fields of req
func (r *Repository) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Admin, error) {
	var (
		sets []string
		args []any
	)
	if req.FullName != nil {
		args = append(args, *req.FullName)
		sets = append(sets, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if req.Email != nil {
		args = append(args, *req.Email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE admins SET %s, updated_at = NOW()
		WHERE id = $%d
		RETURNING id, full_name, email, created_at, updated_at
	`, strings.Join(sets, ", "), len(args))

	a, err := scanAdmin(r.db.QueryRow(ctx, query, args...))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrAdminNotFound
	case database.IsUniqueViolation(err, EmailConstraint):
		return nil, ErrAdminEmailExists
	case err != nil:
		return nil, fmt.Errorf("failed to update admin: %w", err)
	}
	return a, nil
}

// Delete removes an admin
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// ListEmails returns every admin email, for notifications.
func (r *Repository) ListEmails(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT email FROM admins ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin emails: %w", err)
	}
	emails, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan admin emails: %w", err)
	}
	return emails, nil
}
