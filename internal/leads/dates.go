package leads

import (
	"fmt"
	"strings"
	"time"
)

// dateTimeLayouts are tried in order. Layouts without a zone are read as
// UTC. Fractional seconds are accepted after any seconds field.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006, 3:04:05 PM",
	"January 2, 2006 15:04:05",
	"Jan 2, 2006 15:04:05",
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
}

// dateOnlyLayouts name a whole day.
var dateOnlyLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseDate parses a submission or filter date in any of the common
// ISO 8601, US numeric, long-form and HTTP date shapes.
func ParseDate(s string) (time.Time, error) {
	t, _, err := parseDate(s)
	return t, err
}

func parseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	// Date.toString() appends the zone name in parentheses.
	if i := strings.Index(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
	}

	for _, layout := range dateOnlyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, nil
		}
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognised date %q", s)
}

// parseSubmissionDate returns now for an empty value.
func parseSubmissionDate(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return now, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSubmissionDate, s)
	}
	return t, nil
}

// parseEndDate widens a date-only upper bound to cover the whole day.
func parseEndDate(s string) (time.Time, error) {
	t, dateOnly, err := parseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if dateOnly {
		return t.Add(24*time.Hour - time.Nanosecond), nil
	}
	return t, nil
}
