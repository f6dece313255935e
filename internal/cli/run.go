package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/calendar"
	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Today string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine once",
		Long: `Run generation, back-fill and alert fan-out once, under the run lock, and
print the report.

The run is as of today in the configured timezone unless --today is given.
Exits 1 when the store is unavailable or another process holds the run lock.

Example:
  cadence run --db ./cadence.db
  cadence run --today 2023-06-15 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Today, "today", "", "run as of this day (YYYY-MM-DD)")

	return cmd
}

// dayRunner pins the day a run is executed for.
type dayRunner struct {
	*engine.Engine
	today time.Time
}

func (r dayRunner) Today() time.Time {
	return r.today
}

func runOnce(opts *RunOptions, cmd *cobra.Command) error {
	a, err := opts.openApp()
	if err != nil {
		return err
	}
	defer a.close()

	eng, err := opts.newEngine(a)
	if err != nil {
		return err
	}

	today := eng.Today()
	if opts.Today != "" {
		if today, err = calendar.ParseDay(opts.Today, a.loc); err != nil {
			return WrapExitError(ExitCommandError, "invalid --today", err)
		}
	}

	sched, err := opts.newScheduler(a, dayRunner{Engine: eng, today: today})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := opts.formatter(cmd)
	rep, err := sched.RunOnce(ctx)
	switch {
	case errors.Is(err, store.ErrLockHeld):
		_ = out.Error(CodeLockHeld, err.Error(), nil)
		return WrapExitError(ExitFailure, "run skipped", err)
	case errors.Is(err, engine.ErrUnavailable):
		_ = out.Success(rep)
		return WrapExitError(ExitFailure, "run failed", err)
	case err != nil:
		return WrapExitError(ExitFailure, "run failed", err)
	}
	return out.Success(rep)
}

// commandContext returns the command's context, which is nil unless the
// caller used ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
