package engine

import (
	"context"
	"time"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/schedule"
)

// Repository is the persistence the engine reads from. All dates are days in
// the engine's reference zone.
type Repository interface {
	// FindDueForGeneration selects unreviewed recurring control items of the
	// schedule whose due day equals effective.
	FindDueForGeneration(ctx context.Context, name schedule.Name, effective time.Time) ([]actionitem.ActionItem, error)

	// FindDueForBackfill selects unreviewed recurring control items of the
	// schedule whose due day is one of candidates.
	FindDueForBackfill(ctx context.Context, name schedule.Name, candidates []time.Time) ([]actionitem.ActionItem, error)

	// FindForPastDueAlert selects NEW control items for the past-due pass.
	FindForPastDueAlert(ctx context.Context, q PastDueQuery) ([]actionitem.ActionItem, error)

	// FindForFutureDueAlert selects control items of the schedule due on one
	// of dates.
	FindForFutureDueAlert(ctx context.Context, name schedule.Name, dates []time.Time) ([]actionitem.ActionItem, error)

	// InTx runs fn in a transaction. A non-nil error from fn rolls back.
	InTx(ctx context.Context, fn func(Tx) error) error
}

// PastDueQuery selects NEW control items of one schedule due on any of Dates
// or, when WeekdayMatch is set, due before Today on Today's weekday.
type PastDueQuery struct {
	Schedule     schedule.Name
	Dates        []time.Time
	Today        time.Time
	WeekdayMatch bool
}

// Tx is the write side used for one successor.
type Tx interface {
	CreateActionItem(ctx context.Context, item actionitem.ActionItem) error
	CopyAssignees(ctx context.Context, srcID, dstID string) error
	CopyControls(ctx context.Context, srcID, dstID string) error
	ControlIDs(ctx context.Context, itemID string) ([]string, error)
	BulkSetHasNewActionItems(ctx context.Context, controlIDs []string) error
	MarkReviewed(ctx context.Context, id string) error
}

// Directory resolves assignees.
type Directory interface {
	User(ctx context.Context, id string) (actionitem.User, error)
}

// AlertEmitter delivers alerts. created is false when an alert of the same
// type was already sent for the item on that day.
type AlertEmitter interface {
	Emit(ctx context.Context, alert actionitem.Alert) (created bool, err error)
}
