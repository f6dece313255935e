package engine

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/calendar"
	"github.com/roach88/cadence/internal/schedule"
)

var errBackfillDisabled = errors.New("back-fill disabled")

// Backfill restores occurrences missed while the engine did not run. For
// each schedule with a restoration window it selects unreviewed items due on
// any candidate day and creates their successor due at effective today plus
// the duration, so a lagging chain converges on the present.
func (e *Engine) Backfill(ctx context.Context, today time.Time) BackfillReport {
	today = e.day(today)
	rep := BackfillReport{FailedIDs: []string{}, PassState: PassState{Status: StatusOK}}
	if !e.backfillEnabled(today) {
		rep.set(StatusSkipped, errBackfillDisabled)
		e.log.Info().Str("pass", PassBackfill).Msg("pass skipped")
		return rep
	}

	for _, s := range schedule.Recurring() {
		if err := ctx.Err(); err != nil {
			rep.set(StatusPartial, err)
			break
		}
		candidates := s.BackfillCandidates(today)
		if len(candidates) == 0 {
			continue
		}
		effective, _ := s.EffectiveToday(today)
		due, err := s.NextDue(effective)
		if err != nil {
			continue
		}

		items, err := e.repo.FindDueForBackfill(ctx, s.Name, candidates)
		if err != nil {
			e.selectionFailed(ctx, &rep.PassState, PassBackfill, s, err)
			break
		}

		outcomes, interrupted := sweep(ctx, e.workers, items, func(ctx context.Context, item actionitem.ActionItem) Outcome {
			o := e.createSuccessor(ctx, item, due)
			e.logOutcome(PassBackfill, s, item, o)
			return o
		})
		for _, o := range outcomes {
			rep.add(o)
		}
		if interrupted {
			rep.set(StatusPartial, ctx.Err())
			break
		}
	}

	e.log.Info().
		Str("pass", PassBackfill).
		Int("restored", rep.Restored).
		Int("failed", rep.Failed).
		Str("status", string(rep.Status)).
		Msg("pass finished")
	return rep
}

func (e *Engine) backfillEnabled(today time.Time) bool {
	if !e.backfill {
		return false
	}
	if e.backfillUntil.IsZero() {
		return true
	}
	return !today.After(calendar.TruncateToDay(e.backfillUntil, e.loc))
}
