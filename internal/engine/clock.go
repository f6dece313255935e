package engine

import "time"

// Clock supplies wall-clock time for alert timestamps and the default
// logical day.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system time.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
