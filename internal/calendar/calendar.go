// Package calendar implements the day-precision date arithmetic used by the
// recurrence engine.
//
// All matching in the engine happens on calendar days in a single reference
// zone. Time-of-day is carried through arithmetic but ignored by comparisons.
//
// Month and year steps clamp the day-of-month instead of overflowing into
// the next month, so Jan 31 + 1 month is Feb 28 (or Feb 29 in leap years).
// This differs from time.Time.AddDate, which normalizes Jan 31 + 1 month to
// Mar 3.
package calendar

import (
	"fmt"
	"time"
)

// DayLayout is the wire format for calendar days.
const DayLayout = "2006-01-02"

// Offset is a calendar offset. Years and months are applied first (with
// day-of-month clamping), then weeks and days as a flat day count.
//
// Offsets may mix signs: "1 month - 1 week" is Offset{Months: 1, Weeks: -1}.
type Offset struct {
	Years  int
	Months int
	Weeks  int
	Days   int
}

// Days returns an offset of n days.
func Days(n int) Offset { return Offset{Days: n} }

// Weeks returns an offset of n weeks.
func Weeks(n int) Offset { return Offset{Weeks: n} }

// Months returns an offset of n months.
func Months(n int) Offset { return Offset{Months: n} }

// Years returns an offset of n years.
func Years(n int) Offset { return Offset{Years: n} }

// IsZero reports whether the offset moves a date at all.
func (o Offset) IsZero() bool {
	return o == Offset{}
}

// Negate flips the sign of every component.
func (o Offset) Negate() Offset {
	return Offset{Years: -o.Years, Months: -o.Months, Weeks: -o.Weeks, Days: -o.Days}
}

// Scale multiplies every component by n.
func (o Offset) Scale(n int) Offset {
	return Offset{Years: o.Years * n, Months: o.Months * n, Weeks: o.Weeks * n, Days: o.Days * n}
}

// String renders the offset compactly, e.g. "1m-1w" or "5d".
func (o Offset) String() string {
	if o.IsZero() {
		return "0d"
	}
	s := ""
	for _, part := range []struct {
		n    int
		unit string
	}{{o.Years, "y"}, {o.Months, "m"}, {o.Weeks, "w"}, {o.Days, "d"}} {
		if part.n == 0 {
			continue
		}
		if s != "" && part.n > 0 {
			s += "+"
		}
		s += fmt.Sprintf("%d%s", part.n, part.unit)
	}
	return s
}

// Add applies the offset to t.
func Add(t time.Time, o Offset) time.Time {
	if o.Years != 0 || o.Months != 0 {
		t = addMonths(t, o.Years*12+o.Months)
	}
	if days := o.Weeks*7 + o.Days; days != 0 {
		t = t.AddDate(0, 0, days)
	}
	return t
}

// Sub applies the negated offset to t.
func Sub(t time.Time, o Offset) time.Time {
	return Add(t, o.Negate())
}

func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + months
	y += floorDiv(total, 12)
	m = time.Month(floorMod(total, 12) + 1)
	if last := daysIn(y, m); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// TruncateToDay returns midnight of t's calendar day in loc.
func TruncateToDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Weekday returns the weekday of t's calendar day in loc.
func Weekday(t time.Time, loc *time.Location) time.Weekday {
	return TruncateToDay(t, loc).Weekday()
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return TruncateToDay(a, loc).Equal(TruncateToDay(b, loc))
}

// FormatDay renders t's calendar day in loc as YYYY-MM-DD.
func FormatDay(t time.Time, loc *time.Location) string {
	return TruncateToDay(t, loc).Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}
