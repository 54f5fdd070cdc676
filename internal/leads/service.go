package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"leadlms/internal/metrics"

	"github.com/google/uuid"
)

// Notifier is told about every lead created through ingestion. It must not
// block the caller; delivery failures stay inside the notifier.
type Notifier interface {
	NotifyNewLead(lead Lead)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyNewLead(Lead) {}

// StatsWindow is how far back Stats.PerDay reaches.
const StatsWindow = 30 * 24 * time.Hour

// RecentLeads is the size of Stats.Recent.
const RecentLeads = 10

// Service handles lead ingestion and the dashboard operations.
type Service struct {
	store    Store
	notifier Notifier
	objects  ObjectStore
	logger   *slog.Logger
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithObjectStore enables Export.
func WithObjectStore(store ObjectStore) Option {
	return func(s *Service) { s.objects = store }
}

// NewService creates a new leads service
func NewService(store Store, notifier Notifier, logger *slog.Logger, opts ...Option) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// submission is the variant-independent form of an ingestion payload.
type submission struct {
	lead    Lead
	date    string
	rng     string
	variant Variant
}

// IngestSimple creates a lead from the snake_case payload. The label is
// derived from the customer base range.
func (s *Service) IngestSimple(ctx context.Context, req SimpleLeadRequest) (*Lead, error) {
	progress := req.Progress
	if progress == "" {
		progress = ProgressFormSubmitted
	}
	return s.ingest(ctx, submission{
		lead: Lead{
			FullName:        req.FullName,
			Email:           req.Email,
			PhoneNumber:     string(req.PhoneNumber),
			Company:         req.Company,
			CurrentPosition: req.CurrentPosition,
			Progress:        progress,
		},
		date:    req.SubmissionDate,
		rng:     req.CustomerBaseRange,
		variant: VariantSimple,
	})
}

// IngestLegacy creates a lead from the capitalized payload, rejecting a
// threadId that was already ingested.
func (s *Service) IngestLegacy(ctx context.Context, req LegacyLeadRequest) (*Lead, error) {
	threadID := req.ThreadID
	return s.ingest(ctx, submission{
		lead: Lead{
			FullName:        req.FullName,
			Email:           req.Email,
			PhoneNumber:     string(req.PhoneNumber),
			Company:         req.Company,
			CurrentPosition: req.CurrentPosition,
			Label:           req.Label,
			Progress:        req.Progress,
			ThreadID:        &threadID,
			FormMode:        req.FormMode,
		},
		date:    req.SubmissionDate,
		variant: VariantLegacy,
	})
}

// ingest runs validation, dedup, classification, persistence and
// notification, in that order. Nothing is stored if any step before
// persistence fails.
func (s *Service) ingest(ctx context.Context, sub submission) (*Lead, error) {
	lead, err := s.ingestLead(ctx, sub)
	if err != nil {
		metrics.LeadsRejected.WithLabelValues(string(sub.variant), rejectReason(err)).Inc()
		return nil, err
	}

	metrics.LeadsIngested.WithLabelValues(string(sub.variant)).Inc()
	s.logger.Info("Lead ingested",
		"lead_id", lead.ID,
		"variant", sub.variant,
		"label", lead.Label,
	)

	s.notifier.NotifyNewLead(*lead)
	return lead, nil
}

func (s *Service) ingestLead(ctx context.Context, sub submission) (*Lead, error) {
	lead := sub.lead

	submitted, err := parseSubmissionDate(sub.date, s.now())
	if err != nil {
		return nil, err
	}
	lead.SubmissionDate = submitted

	if !lead.Progress.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProgress, lead.Progress)
	}
	if sub.variant == VariantLegacy && !lead.Label.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, lead.Label)
	}

	if lead.ThreadID != nil {
		_, err := s.store.FindByThreadID(ctx, *lead.ThreadID)
		switch {
		case err == nil:
			return nil, ErrDuplicateLead
		case !errors.Is(err, ErrLeadNotFound):
			return nil, err
		}
	}

	if sub.variant == VariantSimple {
		label, err := Classify(sub.rng)
		if err != nil {
			return nil, err
		}
		lead.Label = label
	}

	if err := s.store.Create(ctx, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicateLead):
		return "duplicate"
	default:
		return "error"
	}
}

// List returns leads matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]Lead, error) {
	if f.Label != "" && !f.Label.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, f.Label)
	}
	if f.Progress != "" && !f.Progress.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProgress, f.Progress)
	}
	f.Search = strings.TrimSpace(f.Search)
	return s.store.List(ctx, f)
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return s.store.GetByID(ctx, id)
}

// Update applies a partial edit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, u UpdateRequest) (*Lead, error) {
	if u.Label != nil && !u.Label.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, *u.Label)
	}
	if u.Progress != nil && !u.Progress.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProgress, *u.Progress)
	}

	lead, err := s.store.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Lead updated", "lead_id", id)
	return lead, nil
}

// Delete removes a lead.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Lead deleted", "lead_id", id)
	return nil
}

// Stats returns the dashboard overview.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.store.Stats(ctx, s.now().Add(-StatsWindow), RecentLeads)
}

// rejectBinding counts a payload that failed schema binding before it
// reached the service.
func rejectBinding(variant Variant) {
	metrics.LeadsRejected.WithLabelValues(string(variant), "validation").Inc()
}
