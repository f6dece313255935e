// Package scheduler triggers engine runs once a day and guards each run with
// a store-backed lease so that only one process sweeps at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/logging"
)

// LockName is the run-lock lease shared by every trigger.
const LockName = "engine-run"

// Runner executes one engine run.
type Runner interface {
	Run(ctx context.Context, today time.Time) (engine.Report, error)
	Today() time.Time
}

// Locker grants and releases named leases.
type Locker interface {
	AcquireRunLock(ctx context.Context, name, owner string, ttl time.Duration, now time.Time) error
	ReleaseRunLock(ctx context.Context, name, owner string) error
}

// Scheduler owns the daily trigger.
type Scheduler struct {
	runner Runner
	locker Locker
	clock  engine.Clock
	loc    *time.Location
	log    zerolog.Logger

	hour, minute int
	timeout      time.Duration
	lockTTL      time.Duration
	owner        string

	after func(time.Duration) <-chan time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock used for lease timestamps and the next run time.
func WithClock(c engine.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLocation sets the zone in which the daily run time is read.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRunAt sets the daily trigger time.
func WithRunAt(hour, minute int) Option {
	return func(s *Scheduler) {
		s.hour, s.minute = hour, minute
	}
}

// WithTimeout sets the deadline for one run. Zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// WithLockTTL sets the lease duration.
func WithLockTTL(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

// WithOwner sets the lease owner id. Defaults to a random UUID.
func WithOwner(owner string) Option {
	return func(s *Scheduler) {
		if owner != "" {
			s.owner = owner
		}
	}
}

// WithTimer replaces time.After, for tests.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(s *Scheduler) {
		if after != nil {
			s.after = after
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.log = l
	}
}

// New creates a scheduler that runs runner daily at 02:00 UTC unless
// configured otherwise.
func New(runner Runner, locker Locker, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:  runner,
		locker:  locker,
		clock:   engine.SystemClock{},
		loc:     time.UTC,
		log:     logging.Component("scheduler"),
		hour:    2,
		timeout: 10 * time.Minute,
		lockTTL: 30 * time.Minute,
		owner:   uuid.NewString(),
		after:   time.After,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Owner returns the lease owner id.
func (s *Scheduler) Owner() string {
	return s.owner
}

// Next returns the first trigger time strictly after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	local := now.In(s.loc)
	y, m, d := local.Date()
	next := time.Date(y, m, d, s.hour, s.minute, 0, 0, s.loc)
	if !next.After(local) {
		next = time.Date(y, m, d+1, s.hour, s.minute, 0, 0, s.loc)
	}
	return next
}

// RunOnce takes the run lock, runs the engine for today under the configured
// deadline and releases the lock. Returns an error wrapping the locker's
// error when the lease is held elsewhere; the engine is not invoked then.
func (s *Scheduler) RunOnce(ctx context.Context) (engine.Report, error) {
	if err := s.locker.AcquireRunLock(ctx, LockName, s.owner, s.lockTTL, s.clock.Now()); err != nil {
		return engine.Report{}, fmt.Errorf("run: %w", err)
	}
	defer func() {
		// Release even when ctx is already cancelled.
		if err := s.locker.ReleaseRunLock(context.WithoutCancel(ctx), LockName, s.owner); err != nil {
			s.log.Warn().Err(err).Msg("release run lock")
		}
	}()

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	today := s.runner.Today()
	start := s.clock.Now()
	rep, err := s.runner.Run(runCtx, today)
	if err != nil {
		return rep, err
	}

	s.log.Info().
		Time("today", today).
		Dur("elapsed", s.clock.Now().Sub(start)).
		Int("created", rep.Generation.Created).
		Int("restored", rep.Backfill.Restored).
		Int("alerts", rep.Alerts.Created).
		Msg("run complete")
	return rep, nil
}

// Start blocks, running the engine at every trigger time until ctx is
// cancelled. Failed runs are logged and the loop continues.
func (s *Scheduler) Start(ctx context.Context) error {
	for {
		next := s.Next(s.clock.Now())
		wait := next.Sub(s.clock.Now())
		s.log.Info().Time("next_run", next).Msg("waiting for next run")

		select {
		case <-ctx.Done():
			return nil
		case <-s.after(wait):
		}

		if _, err := s.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			s.log.Error().Err(err).Msg("scheduled run failed")
		}
	}
}
