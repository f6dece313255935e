package actionitem

import "errors"

var (
	// ErrInvalidInput indicates a missing id, name or due date.
	ErrInvalidInput = errors.New("invalid action item input")
	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = errors.New("invalid action item status")
	// ErrUnknownSchedule indicates a schedule name outside the catalog.
	ErrUnknownSchedule = errors.New("unknown recurrence schedule")
	// ErrRecurrenceMismatch indicates is_recurrent disagrees with the schedule.
	ErrRecurrenceMismatch = errors.New("is_recurrent does not match recurrent_schedule")
	// ErrCompletionDate indicates completion_date is set without COMPLETED or missing with it.
	ErrCompletionDate = errors.New("completion_date must be set exactly when status is COMPLETED")
	// ErrInvalidTransition indicates an illegal status transition.
	ErrInvalidTransition = errors.New("invalid action item status transition")
	// ErrInvalidMetadata indicates reserved metadata needed by the engine is missing.
	ErrInvalidMetadata = errors.New("invalid action item metadata")
)
