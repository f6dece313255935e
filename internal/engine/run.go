package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/cadence/internal/calendar"
)

// Run executes Generate, Backfill and Alerts for today in that order and
// returns the combined report. A failing pass never prevents the next one.
// Run honors ctx's deadline: the item in flight finishes and the remaining
// work is reported as partial.
//
// The error is non-nil only when every enabled pass was unavailable; it
// wraps ErrUnavailable. The report is returned in every case.
func (e *Engine) Run(ctx context.Context, today time.Time) (Report, error) {
	today = e.day(today)
	logger := e.log.With().Str("today", calendar.FormatDay(today, e.loc)).Logger()
	logger.Info().Msg("run started")

	rep := Report{Today: calendar.FormatDay(today, e.loc)}
	rep.Generation = e.Generate(ctx, today)
	rep.Backfill = e.Backfill(ctx, today)
	rep.Alerts = e.Alerts(ctx, today)

	if rep.unavailable() {
		logger.Error().Msg("run failed: store unavailable")
		return rep, fmt.Errorf("%w: %s", ErrUnavailable, rep.Generation.Error)
	}

	logger.Info().
		Int("created", rep.Generation.Created).
		Int("restored", rep.Backfill.Restored).
		Int("alerts", rep.Alerts.Created).
		Msg("run finished")
	return rep, nil
}
