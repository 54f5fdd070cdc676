// Package leads ingests, classifies and manages sales leads.
package leads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Label is the budget tier of a lead.
type Label string

const (
	LabelHigh   Label = "High Budget Lead"
	LabelMedium Label = "Medium Budget Lead"
	LabelLow    Label = "Low Budget Lead"
	LabelNone   Label = "No Label"
)

// Labels lists every stored label, tiers first.
var Labels = []Label{LabelHigh, LabelMedium, LabelLow, LabelNone}

// Valid reports whether l is one of Labels.
func (l Label) Valid() bool {
	for _, v := range Labels {
		if l == v {
			return true
		}
	}
	return false
}

// Progress is the sales pipeline status of a lead.
type Progress string

const (
	ProgressFormSubmitted  Progress = "Form Submitted"
	ProgressDemoCallBooked Progress = "Demo Call Booked"
	ProgressDeadLead       Progress = "Dead Lead"
	ProgressPotentialLead  Progress = "Potential Lead"
	ProgressConverted      Progress = "Converted"
)

// ProgressValues lists the pipeline in order.
var ProgressValues = []Progress{
	ProgressFormSubmitted,
	ProgressDemoCallBooked,
	ProgressDeadLead,
	ProgressPotentialLead,
	ProgressConverted,
}

// Valid reports whether p is one of ProgressValues.
func (p Progress) Valid() bool {
	for _, v := range ProgressValues {
		if p == v {
			return true
		}
	}
	return false
}

// Lead is a stored sales lead.
type Lead struct {
	ID              uuid.UUID `json:"id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	PhoneNumber     string    `json:"phone_number"`
	Company         string    `json:"company"`
	CurrentPosition string    `json:"current_position"`
	SubmissionDate  time.Time `json:"submission_date"`
	Label           Label     `json:"label"`
	Progress        Progress  `json:"progress"`
	ThreadID        *string   `json:"thread_id"`
	FormMode        string    `json:"form_mode"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FlexString accepts a JSON string or number and keeps its text form.
// Phone numbers arrive both ways.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch t := v.(type) {
	case nil:
		*f = ""
	case string:
		*f = FlexString(t)
	case json.Number:
		*f = FlexString(t.String())
	default:
		return fmt.Errorf("expected string or number, got %T", v)
	}
	return nil
}

// SimpleLeadRequest is the snake_case ingestion payload. The label is
// derived from CustomerBaseRange and there is no dedup key.
type SimpleLeadRequest struct {
	FullName          string     `json:"full_name" binding:"required"`
	Email             string     `json:"email" binding:"required,email"`
	PhoneNumber       FlexString `json:"phone_number" binding:"required"`
	Company           string     `json:"company" binding:"required"`
	CurrentPosition   string     `json:"current_position" binding:"required"`
	SubmissionDate    string     `json:"submission_date"`
	CustomerBaseRange string     `json:"customer_base_range"`
	Progress          Progress   `json:"progress"`
}

// LegacyLeadRequest is the capitalized-field payload sent by the older
// form integration. It carries an explicit label and a threadId dedup key.
type LegacyLeadRequest struct {
	FullName        string     `json:"Full Name" binding:"required"`
	Email           string     `json:"Email Address" binding:"required,email"`
	PhoneNumber     FlexString `json:"Phone Number" binding:"required"`
	Company         string     `json:"Company" binding:"required"`
	CurrentPosition string     `json:"Current Position" binding:"required"`
	SubmissionDate  string     `json:"Submission Date" binding:"required"`
	Label           Label      `json:"Label" binding:"required"`
	ThreadID        string     `json:"threadId" binding:"required"`
	FormMode        string     `json:"formMode"`
	Progress        Progress   `json:"Progress" binding:"required"`
}

// Variant names an ingestion payload shape in logs and metrics.
type Variant string

const (
	VariantSimple Variant = "simple"
	VariantLegacy Variant = "legacy"
)

// Filter narrows List. Zero fields do not filter. Date bounds are inclusive.
type Filter struct {
	Label     Label
	Progress  Progress
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
}

// UpdateRequest is a partial edit from the dashboard.
type UpdateRequest struct {
	FullName        *string   `json:"full_name" binding:"omitempty,min=1"`
	Email           *string   `json:"email" binding:"omitempty,email"`
	PhoneNumber     *string   `json:"phone_number"`
	Company         *string   `json:"company"`
	CurrentPosition *string   `json:"current_position"`
	Label           *Label    `json:"label"`
	Progress        *Progress `json:"progress"`
}

// Empty reports whether the request changes nothing.
func (u UpdateRequest) Empty() bool {
	return u.FullName == nil && u.Email == nil && u.PhoneNumber == nil &&
		u.Company == nil && u.CurrentPosition == nil && u.Label == nil && u.Progress == nil
}

// LabelCount is one bucket of Stats.ByLabel.
type LabelCount struct {
	Label Label `json:"label"`
	Count int64 `json:"count"`
}

// ProgressCount is one bucket of Stats.ByProgress.
type ProgressCount struct {
	Progress Progress `json:"progress"`
	Count    int64    `json:"count"`
}

// DayCount is the number of leads submitted on one UTC day.
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// Stats backs the dashboard overview.
type Stats struct {
	Total      int64           `json:"total_leads"`
	ByLabel    []LabelCount    `json:"label_stats"`
	ByProgress []ProgressCount `json:"progress_stats"`
	Recent     []Lead          `json:"recent_leads"`
	PerDay     []DayCount      `json:"leads_over_time"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// CreatedResponse is returned by the ingestion endpoints.
type CreatedResponse struct {
	Success bool  `json:"success"`
	Lead    *Lead `json:"lead"`
}
