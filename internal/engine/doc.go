// Package engine implements the recurring action-item engine.
//
// A run for logical day T executes three passes in a fixed order:
//
//  1. Generate: for every recurring schedule, items due on T minus the
//     schedule's notice period get their successor.
//  2. Backfill: items left unreviewed inside a schedule's restoration window
//     get a successor due at the current effective date plus the duration.
//  3. Alerts: past-due alerts first, then future-due alerts.
//
// Generate must run before Backfill. An item selected by both is marked
// reviewed by the first pass and therefore excluded by the second.
//
// Each successor is written in one transaction together with the relation
// copies, the control flag update and the predecessor's review mark. A failed
// item rolls back alone and stays unreviewed, so the next run retries it.
//
// Per-item results are values (Outcome), collected into per-pass reports. A
// selection failure aborts only its pass. The engine assumes singleton
// execution; callers serialize runs with a lock.
package engine
