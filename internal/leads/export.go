package leads

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrExportUnavailable is returned when no object store is configured.
var ErrExportUnavailable = errors.New("lead export is not configured")

// ExportURLTTL is how long an export download link stays valid.
const ExportURLTTL = 15 * time.Minute

// ObjectStore is the part of the storage service the exporter needs.
type ObjectStore interface {
	UploadObject(ctx context.Context, key, contentType string, body []byte) error
	GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ExportResult describes an uploaded export.
type ExportResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expires_at"`
}

var csvHeader = []string{
	"id", "full_name", "email", "phone_number", "company", "current_position",
	"submission_date", "label", "progress", "thread_id", "form_mode", "created_at",
}

// WriteCSV writes leads with a header row.
func WriteCSV(w io.Writer, leads []Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, l := range leads {
		threadID := ""
		if l.ThreadID != nil {
			threadID = *l.ThreadID
		}
		record := []string{
			l.ID.String(),
			l.FullName,
			l.Email,
			l.PhoneNumber,
			l.Company,
			l.CurrentPosition,
			l.SubmissionDate.UTC().Format(time.RFC3339),
			string(l.Label),
			string(l.Progress),
			threadID,
			l.FormMode,
			l.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportEnabled reports whether Export has somewhere to upload to.
func (s *Service) ExportEnabled() bool {
	return s.objects != nil
}

// Export renders the leads matching f as CSV, uploads them and returns a
// presigned download link.
func (s *Service) Export(ctx context.Context, f Filter) (*ExportResult, error) {
	if !s.ExportEnabled() {
		return nil, ErrExportUnavailable
	}

	leads, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, leads); err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}

	now := s.now().UTC()
	key := fmt.Sprintf("exports/leads-%s-%s.csv", now.Format("20060102T150405Z"), uuid.NewString())
	if err := s.objects.UploadObject(ctx, key, "text/csv", buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := s.objects.GeneratePresignedDownloadURL(ctx, key, ExportURLTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Leads exported", "key", key, "count", len(leads))
	return &ExportResult{
		Key:       key,
		URL:       url,
		Count:     len(leads),
		ExpiresAt: now.Add(ExportURLTTL),
	}, nil
}
