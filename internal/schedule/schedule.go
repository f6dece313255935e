// Package schedule defines the closed catalog of recurrence schedules.
//
// Each entry declares its notice arithmetic relative to an action item's due
// date: how far the next occurrence lies (Duration), how long before the
// next due date a successor materializes (NoticePeriod), and on which days
// around the due date alerts fire.
package schedule

import (
	"fmt"
	"time"

	"github.com/roach88/cadence/internal/calendar"
)

// Name identifies a catalog entry. The empty name is the immediate (one-time)
// schedule.
type Name string

const (
	Immediate    Name = ""
	Weekly       Name = "weekly"
	Monthly      Name = "monthly"
	Quarterly    Name = "quarterly"
	SemiAnnually Name = "semi_annually"
	Annually     Name = "annually"
	BiAnnually   Name = "bi_annually"
)

// Label renders the name for logs, with "immediate" for the empty name.
func (n Name) Label() string {
	if n == Immediate {
		return "immediate"
	}
	return string(n)
}

// Window is a back-fill restoration window: candidate due dates lie at
// k*Unit before the effective today, for k = 0, Every, 2*Every, ... <= Steps.
type Window struct {
	Unit  calendar.Offset
	Steps int
	Every int
}

// IsZero reports whether the schedule has no restoration window.
func (w Window) IsZero() bool {
	return w.Steps == 0
}

// Schedule is an immutable catalog entry.
type Schedule struct {
	Name                Name
	Duration            *calendar.Offset
	NoticePeriod        *calendar.Offset
	HasRecurrentPastDue bool
	PastDueOffsets      []calendar.Offset
	FutureDueOffsets    []calendar.Offset
	Window              Window
}

// IsRecurring reports whether the schedule produces successors.
func (s Schedule) IsRecurring() bool {
	return s.Duration != nil && s.NoticePeriod != nil
}

// EffectiveToday returns today minus the notice period: the due date of an
// item whose successor must materialize today. ok is false for schedules
// without a notice period.
func (s Schedule) EffectiveToday(today time.Time) (effective time.Time, ok bool) {
	if s.NoticePeriod == nil {
		return time.Time{}, false
	}
	return calendar.Sub(today, *s.NoticePeriod), true
}

// NextDue returns due + Duration.
func (s Schedule) NextDue(due time.Time) (time.Time, error) {
	if s.Duration == nil {
		return time.Time{}, fmt.Errorf("schedule %s has no duration", s.Name.Label())
	}
	return calendar.Add(due, *s.Duration), nil
}

// BackfillCandidates enumerates the due dates a silent interval could have
// left unreviewed: effective today and every window step before it. Each
// candidate is computed from effective today directly so month clamping
// does not drift across steps.
func (s Schedule) BackfillCandidates(today time.Time) []time.Time {
	effective, ok := s.EffectiveToday(today)
	if !ok || s.Window.IsZero() {
		return nil
	}
	every := s.Window.Every
	if every < 1 {
		every = 1
	}
	candidates := make([]time.Time, 0, s.Window.Steps/every+1)
	for k := 0; k <= s.Window.Steps; k += every {
		candidates = append(candidates, calendar.Sub(effective, s.Window.Unit.Scale(k)))
	}
	return candidates
}

// PastDueDates returns today minus each past-due offset.
func (s Schedule) PastDueDates(today time.Time) []time.Time {
	dates := make([]time.Time, 0, len(s.PastDueOffsets))
	for _, o := range s.PastDueOffsets {
		dates = append(dates, calendar.Sub(today, o))
	}
	return dates
}

// FutureDueDates returns today plus each future-due offset.
func (s Schedule) FutureDueDates(today time.Time) []time.Time {
	dates := make([]time.Time, 0, len(s.FutureDueOffsets))
	for _, o := range s.FutureDueOffsets {
		dates = append(dates, calendar.Add(today, o))
	}
	return dates
}

func offset(o calendar.Offset) *calendar.Offset { return &o }

func offsets(os ...calendar.Offset) []calendar.Offset { return os }

// Catalog returns the schedules in declaration order. The slice and its
// entries are freshly built on every call.
func Catalog() []Schedule {
	day, week, month := calendar.Days(1), calendar.Weeks(1), calendar.Months(1)
	return []Schedule{
		{
			Name:             Immediate,
			PastDueOffsets:   offsets(day, week),
			FutureDueOffsets: offsets(day),
		},
		{
			Name:                Weekly,
			Duration:            offset(calendar.Days(7)),
			NoticePeriod:        offset(calendar.Days(5)),
			HasRecurrentPastDue: true,
			PastDueOffsets:      offsets(day),
			FutureDueOffsets:    offsets(day, calendar.Days(2)),
			Window:              Window{Unit: week, Steps: 108, Every: 1},
		},
		{
			Name:                Monthly,
			Duration:            offset(month),
			NoticePeriod:        offset(calendar.Offset{Months: 1, Weeks: -1}),
			HasRecurrentPastDue: true,
			PastDueOffsets:      offsets(day),
			FutureDueOffsets:    offsets(day, week),
			Window:              Window{Unit: month, Steps: 26, Every: 1},
		},
		{
			Name:                Quarterly,
			Duration:            offset(calendar.Months(3)),
			NoticePeriod:        offset(calendar.Offset{Months: 3, Weeks: -1}),
			HasRecurrentPastDue: true,
			PastDueOffsets:      offsets(day),
			FutureDueOffsets:    offsets(week, month),
			Window:              Window{Unit: month, Steps: 26, Every: 3},
		},
		{
			Name:                SemiAnnually,
			Duration:            offset(calendar.Months(6)),
			NoticePeriod:        offset(calendar.Months(5)),
			HasRecurrentPastDue: true,
			PastDueOffsets:      offsets(day),
			FutureDueOffsets:    offsets(day, week, month),
			Window:              Window{Unit: month, Steps: 26, Every: 6},
		},
		{
			Name:                Annually,
			Duration:            offset(calendar.Years(1)),
			NoticePeriod:        offset(calendar.Months(11)),
			HasRecurrentPastDue: true,
			PastDueOffsets:      offsets(day),
			FutureDueOffsets:    offsets(day, week, month),
			Window:              Window{Unit: month, Steps: 26, Every: 12},
		},
		{
			Name:                BiAnnually,
			Duration:            offset(calendar.Years(2)),
			NoticePeriod:        offset(calendar.Months(23)),
			HasRecurrentPastDue: true,
			PastDueOffsets:      offsets(day),
			FutureDueOffsets:    offsets(day, week, month),
		},
	}
}

// Recurring returns the catalog entries that produce successors, in
// declaration order.
func Recurring() []Schedule {
	var out []Schedule
	for _, s := range Catalog() {
		if s.IsRecurring() {
			out = append(out, s)
		}
	}
	return out
}

// Lookup finds a catalog entry by name.
func Lookup(name Name) (Schedule, bool) {
	for _, s := range Catalog() {
		if s.Name == name {
			return s, true
		}
	}
	return Schedule{}, false
}

// Parse validates a schedule name. "immediate" is accepted as an alias of the
// empty name.
func Parse(s string) (Name, error) {
	if s == "immediate" {
		return Immediate, nil
	}
	if _, ok := Lookup(Name(s)); !ok {
		return "", fmt.Errorf("unknown recurrence schedule %q", s)
	}
	return Name(s), nil
}
