package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/calendar"
	"github.com/roach88/cadence/internal/logging"
	"github.com/roach88/cadence/internal/schedule"
)

// DefaultWorkers is the default size of the per-pass worker pool.
const DefaultWorkers = 1

// Engine runs the generation, back-fill and alert passes against a store.
//
// Thread-safety: an Engine holds no mutable state after construction and may
// be shared, but two concurrent Run calls on one store double-generate.
// Serialize runs with a run lock.
type Engine struct {
	repo   Repository
	users  Directory
	alerts AlertEmitter
	ids    IDGenerator
	clock  Clock
	loc    *time.Location
	log    zerolog.Logger

	workers       int
	backfill      bool
	backfillUntil time.Time
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithIDGenerator sets the id source for successors and alerts.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithClock sets the wall clock used for alert timestamps.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLocation sets the reference zone in which days are truncated.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithWorkers bounds the number of items processed concurrently within a
// pass. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.workers = n
		}
	}
}

// WithBackfill enables or disables the back-fill pass. A non-zero until
// disables it for days after until.
func WithBackfill(enabled bool, until time.Time) Option {
	return func(e *Engine) {
		e.backfill = enabled
		e.backfillUntil = until
	}
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New creates an engine over repo, resolving assignees through users and
// delivering alerts through alerts.
//
// Options can be passed to configure the engine (e.g., WithWorkers).
func New(repo Repository, users Directory, alerts AlertEmitter, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		users:    users,
		alerts:   alerts,
		ids:      UUIDv7Generator{},
		clock:    SystemClock{},
		loc:      time.UTC,
		log:      logging.Component("engine"),
		workers:  DefaultWorkers,
		backfill: true,
	}

	// Apply options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Location returns the reference zone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Today returns the clock's current day in the reference zone.
func (e *Engine) Today() time.Time {
	return e.day(e.clock.Now())
}

func (e *Engine) day(t time.Time) time.Time {
	return calendar.TruncateToDay(t, e.loc)
}

// createSuccessor writes pred's successor due on due and marks pred
// reviewed, all in one transaction.
func (e *Engine) createSuccessor(ctx context.Context, pred actionitem.ActionItem, due time.Time) Outcome {
	out := Outcome{ItemID: pred.ID}

	next, err := actionitem.NewSuccessor(pred).ID(e.ids.Generate()).DueDate(due).Build()
	if err != nil {
		out.Err = err
		return out
	}

	err = e.repo.InTx(ctx, func(tx Tx) error {
		if err := tx.CreateActionItem(ctx, next); err != nil {
			return fmt.Errorf("create successor: %w", err)
		}
		if err := tx.CopyAssignees(ctx, pred.ID, next.ID); err != nil {
			return fmt.Errorf("copy assignees: %w", err)
		}
		if err := tx.CopyControls(ctx, pred.ID, next.ID); err != nil {
			return fmt.Errorf("copy controls: %w", err)
		}
		controlIDs, err := tx.ControlIDs(ctx, next.ID)
		if err != nil {
			return fmt.Errorf("load successor controls: %w", err)
		}
		if err := tx.BulkSetHasNewActionItems(ctx, controlIDs); err != nil {
			return fmt.Errorf("flag controls: %w", err)
		}
		if err := tx.MarkReviewed(ctx, pred.ID); err != nil {
			return fmt.Errorf("mark reviewed: %w", err)
		}
		return nil
	})
	if err != nil {
		out.Err = err
		return out
	}

	out.SuccessorID = next.ID
	return out
}

func (e *Engine) logOutcome(pass string, s schedule.Schedule, item actionitem.ActionItem, o Outcome) {
	if o.OK() {
		e.log.Debug().
			Str("pass", pass).
			Str("schedule", s.Name.Label()).
			Str("action_item_id", item.ID).
			Str("reference_id", item.Metadata.ReferenceID).
			Str("successor_id", o.SuccessorID).
			Msg("successor created")
		return
	}
	e.log.Warn().
		Err(o.Err).
		Str("pass", pass).
		Str("schedule", s.Name.Label()).
		Str("action_item_id", item.ID).
		Str("reference_id", item.Metadata.ReferenceID).
		Msg("successor failed")
}

// selectionFailed records a selection error on state. A cancelled ctx makes
// the pass partial rather than unavailable.
func (e *Engine) selectionFailed(ctx context.Context, state *PassState, pass string, s schedule.Schedule, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		state.set(StatusPartial, ctxErr)
		e.log.Warn().Err(ctxErr).Str("pass", pass).Str("schedule", s.Name.Label()).Msg("run deadline reached")
		return
	}
	serr := &SelectionError{Pass: pass, Schedule: s.Name, Err: err}
	state.set(StatusUnavailable, serr)
	e.log.Error().Err(err).Str("pass", pass).Str("schedule", s.Name.Label()).Msg("selection failed")
}
