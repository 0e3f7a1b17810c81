package parse

import (
	"fmt"
	"strings"
	"time"
)

// Convention is the timezone convention used for backend datetime fields.
type Convention string

const (
	// ConventionLocal sends naive local time without an offset.
	ConventionLocal Convention = "local"
	// ConventionUTC sends UTC with a "Z" suffix.
	ConventionUTC Convention = "utc"
)

const (
	naiveLayout = "2006-01-02T15:04:05"
	utcLayout   = "2006-01-02T15:04:05Z"
)

// DatetimeFormatter renders instants for the backend, second precision.
type DatetimeFormatter struct {
	Convention Convention
	Location   *time.Location
}

// NewDatetimeFormatter validates the convention and loads the timezone.
func NewDatetimeFormatter(convention, timezone string) (DatetimeFormatter, error) {
	c := Convention(strings.ToLower(strings.TrimSpace(convention)))
	if c == "" {
		c = ConventionLocal
	}
	if c != ConventionLocal && c != ConventionUTC {
		return DatetimeFormatter{}, fmt.Errorf("unknown datetime convention %q", convention)
	}
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return DatetimeFormatter{}, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
		}
		loc = l
	}
	return DatetimeFormatter{Convention: c, Location: loc}, nil
}

// Format renders t in the configured convention.
func (f DatetimeFormatter) Format(t time.Time) string {
	if f.Convention == ConventionUTC {
		return t.UTC().Format(utcLayout)
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(naiveLayout)
}

// Parse accepts RFC3339 (with offset) or the naive form, which is read in
// the formatter's location.
func (f DatetimeFormatter) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(naiveLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse datetime %q: %w", s, err)
	}
	return t, nil
}
