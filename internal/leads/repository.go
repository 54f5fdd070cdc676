package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadlms/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ThreadIDConstraint is the unique constraint guarding the dedup key.
const ThreadIDConstraint = "leads_thread_id_key"

const leadColumns = `id, full_name, email, phone_number, company, current_position,
	submission_date, label, progress, thread_id, form_mode, created_at, updated_at`

// Store defines lead persistence.
type Store interface {
	Create(ctx context.Context, lead *Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lead, error)
	FindByThreadID(ctx context.Context, threadID string) (*Lead, error)
	List(ctx context.Context, f Filter) ([]Lead, error)
	Update(ctx context.Context, id uuid.UUID, u UpdateRequest) (*Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, since time.Time, recent int) (*Stats, error)
}

// Repository implements Store on PostgreSQL.
type Repository struct {
	db database.Service
}

// NewRepository creates a new leads repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

func scanLead(row pgx.Row) (*Lead, error) {
	lead := &Lead{}
	err := row.Scan(
		&lead.ID,
		&lead.FullName,
		&lead.Email,
		&lead.PhoneNumber,
		&lead.Company,
		&lead.CurrentPosition,
		&lead.SubmissionDate,
		&lead.Label,
		&lead.Progress,
		&lead.ThreadID,
		&lead.FormMode,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	defer rows.Close()

	leads := []Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leads: %w", err)
	}
	return leads, nil
}

// Create inserts lead and fills in its generated fields. A thread_id
// collision is returned as ErrDuplicateLead.
func (r *Repository) Create(ctx context.Context, lead *Lead) error {
	query := `
		INSERT INTO leads (full_name, email, phone_number, company, current_position,
			submission_date, label, progress, thread_id, form_mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		lead.FullName,
		lead.Email,
		lead.PhoneNumber,
		lead.Company,
		lead.CurrentPosition,
		lead.SubmissionDate,
		lead.Label,
		lead.Progress,
		lead.ThreadID,
		lead.FormMode,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)

	if database.IsUniqueViolation(err, ThreadIDConstraint) {
		return ErrDuplicateLead
	}
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// GetByID retrieves a single lead
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	lead, err := scanLead(r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

// FindByThreadID looks a lead up by its dedup key
func (r *Repository) FindByThreadID(ctx context.Context, threadID string) (*Lead, error) {
	lead, err := scanLead(r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE thread_id = $1`, threadID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lead by thread id: %w", err)
	}
	return lead, nil
}

// List returns leads matching f, newest submission first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Lead, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Label != "" {
		where = append(where, "label = "+arg(f.Label))
	}
	if f.Progress != "" {
		where = append(where, "progress = "+arg(f.Progress))
	}
	if f.Search != "" {
		p := arg("%" + escapeLike(f.Search) + "%")
		where = append(where, fmt.Sprintf("(full_name ILIKE %[1]s OR email ILIKE %[1]s OR company ILIKE %[1]s)", p))
	}
	if f.StartDate != nil {
		where = append(where, "submission_date >= "+arg(*f.StartDate))
	}
	if f.EndDate != nil {
		where = append(where, "submission_date <= "+arg(*f.EndDate))
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY submission_date DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return collectLeads(rows)
}

// Update applies the non-nil fields of u. An empty update returns the
// current row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, u UpdateRequest) (*Lead, error) {
	if u.Empty() {
		return r.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.FullName != nil {
		set("full_name", *u.FullName)
	}
	if u.Email != nil {
		set("email", *u.Email)
	}
	if u.PhoneNumber != nil {
		set("phone_number", *u.PhoneNumber)
	}
	if u.Company != nil {
		set("company", *u.Company)
	}
	if u.CurrentPosition != nil {
		set("current_position", *u.CurrentPosition)
	}
	if u.Label != nil {
		set("label", *u.Label)
	}
	if u.Progress != nil {
		set("progress", *u.Progress)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE leads SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return lead, nil
}

// Delete removes a lead
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// Stats aggregates the dashboard overview. PerDay covers submissions at or
// after since, bucketed by UTC day.
func (r *Repository) Stats(ctx context.Context, since time.Time, recent int) (*Stats, error) {
	stats := &Stats{
		ByLabel:    []LabelCount{},
		ByProgress: []ProgressCount{},
		PerDay:     []DayCount{},
	}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT label, COUNT(*) FROM leads GROUP BY label ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to group leads by label: %w", err)
	}
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		stats.ByLabel = append(stats.ByLabel, lc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating label counts: %w", err)
	}

	rows, err = r.db.Query(ctx, `SELECT progress, COUNT(*) FROM leads GROUP BY progress ORDER BY progress`)
	if err != nil {
		return nil, fmt.Errorf("failed to group leads by progress: %w", err)
	}
	for rows.Next() {
		var pc ProgressCount
		if err := rows.Scan(&pc.Progress, &pc.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan progress count: %w", err)
		}
		stats.ByProgress = append(stats.ByProgress, pc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating progress counts: %w", err)
	}

	rows, err = r.db.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY submission_date DESC LIMIT $1`, recent)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent leads: %w", err)
	}
	if stats.Recent, err = collectLeads(rows); err != nil {
		return nil, err
	}

	rows, err = r.db.Query(ctx, `
		SELECT to_char(date_trunc('day', submission_date AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day, COUNT(*)
		FROM leads
		WHERE submission_date >= $1
		GROUP BY day
		ORDER BY day
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads per day: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan day count: %w", err)
		}
		stats.PerDay = append(stats.PerDay, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day counts: %w", err)
	}

	return stats, nil
}

// escapeLike escapes LIKE wildcards so search text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
