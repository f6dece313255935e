package engine

import (
	"context"
	"time"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/schedule"
)

// Generate creates the successor of every recurring item whose due day is
// today minus its schedule's notice period. Schedules are visited in catalog
// order.
func (e *Engine) Generate(ctx context.Context, today time.Time) GenerationReport {
	today = e.day(today)
	rep := GenerationReport{FailedIDs: []string{}, PassState: PassState{Status: StatusOK}}

	for _, s := range schedule.Recurring() {
		if err := ctx.Err(); err != nil {
			rep.set(StatusPartial, err)
			break
		}
		effective, _ := s.EffectiveToday(today)
		items, err := e.repo.FindDueForGeneration(ctx, s.Name, effective)
		if err != nil {
			e.selectionFailed(ctx, &rep.PassState, PassGeneration, s, err)
			break
		}

		outcomes, interrupted := sweep(ctx, e.workers, items, func(ctx context.Context, item actionitem.ActionItem) Outcome {
			due, err := s.NextDue(item.DueDate)
			if err != nil {
				return Outcome{ItemID: item.ID, Err: err}
			}
			o := e.createSuccessor(ctx, item, due)
			e.logOutcome(PassGeneration, s, item, o)
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
		Str("pass", PassGeneration).
		Int("created", rep.Created).
		Int("failed", rep.Failed).
		Str("status", string(rep.Status)).
		Msg("pass finished")
	return rep
}
