package leads

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Budget thresholds on the minimum customer base size. Both comparisons are
// strict: exactly 200000 is Medium and exactly 10000 is Low.
const (
	HighBudgetThreshold   = 200000
	MediumBudgetThreshold = 10000
)

// Range is a parsed customer base range. Max is nil for open ranges (">N").
type Range struct {
	Min int64
	Max *int64
}

// ParseRange parses ">N" or "MIN-MAX". Non-digit characters are stripped from
// each part before parsing, so "10,000 - 50,000" is accepted.
func ParseRange(text string) (Range, error) {
	if strings.HasPrefix(text, ">") {
		lo, ok := parsePart(text)
		if !ok {
			return Range{}, fmt.Errorf("%w: %q has no lower bound", ErrInvalidRange, text)
		}
		return Range{Min: lo}, nil
	}

	parts := strings.Split(text, "-")
	if len(parts) < 2 {
		return Range{}, fmt.Errorf("%w: %q is not a MIN-MAX range", ErrInvalidRange, text)
	}

	lo, ok := parsePart(parts[0])
	if !ok {
		return Range{}, fmt.Errorf("%w: %q has an unreadable minimum", ErrInvalidRange, text)
	}
	hi, ok := parsePart(parts[1])
	if !ok {
		return Range{}, fmt.Errorf("%w: %q has an unreadable maximum", ErrInvalidRange, text)
	}

	return Range{Min: lo, Max: &hi}, nil
}

// Label returns the budget tier for the range minimum.
func (r Range) Label() Label {
	switch {
	case r.Min > HighBudgetThreshold:
		return LabelHigh
	case r.Min > MediumBudgetThreshold:
		return LabelMedium
	default:
		return LabelLow
	}
}

// Classify maps a free-text customer base range to a budget label. An empty
// range is not an error and yields LabelNone.
func Classify(text string) (Label, error) {
	if text == "" {
		return LabelNone, nil
	}
	r, err := ParseRange(text)
	if err != nil {
		return "", err
	}
	return r.Label(), nil
}

func parsePart(s string) (int64, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		// Too many digits for int64 is still a very large customer base.
		return math.MaxInt64, true
	}
	if err != nil {
		return 0, false
	}
	return n, true
}
