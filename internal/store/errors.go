package store

import "errors"

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLockHeld indicates another owner holds an unexpired run lock.
	ErrLockHeld = errors.New("run lock held")
)
