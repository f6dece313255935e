package actionitem

import (
	"fmt"
	"time"
)

var transitions = map[Status][]Status{
	StatusNew:     {StatusPending, StatusCompleted, StatusNotApplicable},
	StatusPending: {StatusCompleted, StatusNotApplicable},
}

// ValidateTransition checks a requested status change.
func ValidateTransition(from, to Status) error {
	if !from.Valid() || !to.Valid() {
		return ErrInvalidStatus
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Transition moves the item to status to, stamping completion_date when it
// enters COMPLETED.
func (a *ActionItem) Transition(to Status, now time.Time) error {
	if err := ValidateTransition(a.Status, to); err != nil {
		return err
	}
	a.Status = to
	if to == StatusCompleted {
		completed := now
		a.CompletionDate = &completed
	} else {
		a.CompletionDate = nil
	}
	return nil
}
