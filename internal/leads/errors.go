package leads

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of every input error; handlers map it to 400.
var ErrValidation = errors.New("validation failed")

var (
	ErrInvalidRange          = fmt.Errorf("%w: invalid customer_base_range format", ErrValidation)
	ErrInvalidSubmissionDate = fmt.Errorf("%w: invalid submission_date format", ErrValidation)
	ErrInvalidLabel          = fmt.Errorf("%w: invalid label", ErrValidation)
	ErrInvalidProgress       = fmt.Errorf("%w: invalid progress", ErrValidation)
	ErrInvalidDateFilter     = fmt.Errorf("%w: invalid date filter", ErrValidation)

	ErrDuplicateLead = errors.New("lead with this threadId already exists")
	ErrLeadNotFound  = errors.New("lead not found")
)
