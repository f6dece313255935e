package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/cadence/internal/schedule"
)

// ErrUnavailable is returned by Run when no pass could read the store.
var ErrUnavailable = errors.New("persistence unavailable")

// Pass names used in errors and logs.
const (
	PassGeneration = "generation"
	PassBackfill   = "backfill"
	PassAlerts     = "alerts"
)

// SelectionError reports a failed selection query. It aborts its pass.
type SelectionError struct {
	// Pass is the pass that issued the query.
	Pass string

	// Schedule is the catalog entry being processed.
	Schedule schedule.Name

	// Err is the store error.
	Err error
}

// Error implements the error interface.
func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s: select %s items: %v", e.Pass, e.Schedule.Label(), e.Err)
}

// Unwrap returns the store error.
func (e *SelectionError) Unwrap() error {
	return e.Err
}

// IsSelectionError returns true if err wraps a SelectionError.
// Uses errors.As to handle wrapped errors.
func IsSelectionError(err error) bool {
	var se *SelectionError
	return errors.As(err, &se)
}
