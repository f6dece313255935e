// Package store provides SQLite-backed persistence for action items,
// controls, users, alerts and run locks.
//
// It implements the engine's Repository, Tx, Directory and AlertEmitter
// interfaces.
//
// # Days
//
// Each action item carries its due instant (due_date) and the calendar day of
// that instant in the store's reference zone (due_day). Every selection
// compares days, never instants, so time-of-day is ignored for matching.
// Weekday matching uses strftime('%w') on due_day.
//
// # Invariants enforced by the schema
//
//   - is_recurrent is true exactly when recurrent_schedule is non-empty
//   - completion_date is set exactly when status is COMPLETED
//   - at most one alert per (action item, type, day)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s for locks
//   - foreign_keys=ON: Enforce referential integrity
//   - One open connection: SQLite has a single writer
package store
