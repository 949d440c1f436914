package garden

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts an RFC 3339 instant or a calendar date and returns it in UTC.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, NewFieldError(field, "is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, NewFieldError(field, "must be an ISO-8601 date, got %q", s)
}

// parseOptionalDate returns nil for an empty string.
func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := ParseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate is the wire form used when a client sends a date back. It keeps
// sub-second precision so filters compare the same on both sides.
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
