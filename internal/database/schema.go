package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// UniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const UniqueViolation = "23505"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		token      TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at)`,

	`CREATE TABLE IF NOT EXISTS leads (
		id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		full_name        TEXT NOT NULL,
		email            TEXT NOT NULL,
		phone_number     TEXT NOT NULL,
		company          TEXT NOT NULL,
		current_position TEXT NOT NULL,
		submission_date  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		label            TEXT NOT NULL DEFAULT 'No Label',
		progress         TEXT NOT NULL DEFAULT 'Form Submitted',
		thread_id        TEXT UNIQUE,
		form_mode        TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_submission_date ON leads (submission_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_label ON leads (label)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_progress ON leads (progress)`,

	`CREATE TABLE IF NOT EXISTS admins (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		full_name  TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables and indexes if they do not exist yet.
func Migrate(ctx context.Context, db Service) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique constraint violation.
// When constraint is non-empty the violated constraint name must match too.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
