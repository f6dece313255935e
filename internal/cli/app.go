package cli

import (
	"time"

	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/logging"
	"github.com/roach88/cadence/internal/scheduler"
	"github.com/roach88/cadence/internal/store"
)

// app bundles the objects every command builds from configuration.
type app struct {
	store *store.Store
	loc   *time.Location
	clock engine.Clock
}

func (o *RootOptions) openApp() (*app, error) {
	loc, err := o.Config.Location()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid timezone", err)
	}
	st, err := store.Open(o.Config.DB.Path, store.WithLocation(loc))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	clock := o.Clock
	if clock == nil {
		clock = engine.SystemClock{}
	}
	return &app{store: st, loc: loc, clock: clock}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		log := logging.Component("cli")
		log.Error().Err(err).Msg("error closing database")
	}
}

func (o *RootOptions) newEngine(a *app) (*engine.Engine, error) {
	until, err := o.Config.BackfillUntil()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid backfill cutoff", err)
	}
	opts := []engine.Option{
		engine.WithClock(a.clock),
		engine.WithLocation(a.loc),
		engine.WithWorkers(o.Config.Engine.Workers),
		engine.WithBackfill(o.Config.Engine.Backfill.Enabled, until),
	}
	if o.IDs != nil {
		opts = append(opts, engine.WithIDGenerator(o.IDs))
	}
	return engine.New(a.store, a.store, a.store, opts...), nil
}

func (o *RootOptions) newScheduler(a *app, runner scheduler.Runner) (*scheduler.Scheduler, error) {
	hour, minute, err := o.Config.RunAt()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid run time", err)
	}
	return scheduler.New(runner, a.store,
		scheduler.WithClock(a.clock),
		scheduler.WithLocation(a.loc),
		scheduler.WithRunAt(hour, minute),
		scheduler.WithTimeout(o.Config.Engine.RunTimeout),
		scheduler.WithLockTTL(o.Config.Scheduler.LockTTL),
	), nil
}
