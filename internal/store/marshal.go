package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/cadence/internal/calendar"
)

// formatInstant renders t as an RFC 3339 instant in UTC for storage.
func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseInstant reads a stored instant and moves it into loc.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse instant %q: %w", s, err)
	}
	return t.In(loc), nil
}

func nullInstant(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatInstant(*t), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// formatDay renders t's calendar day in loc as stored in due_day/alert_day.
func formatDay(t time.Time, loc *time.Location) string {
	return calendar.FormatDay(t, loc)
}

// dayArgs renders days for an IN clause.
func dayArgs(days []time.Time, loc *time.Location) []any {
	args := make([]any, len(days))
	for i, d := range days {
		args[i] = formatDay(d, loc)
	}
	return args
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// placeholders returns "?, ?, ?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
