package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/cadence/internal/httpapi"
	"github.com/roach88/cadence/internal/logging"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string

	// Ready, when set, receives the bound listen address once the server
	// accepts connections (for testing).
	Ready chan<- string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daily scheduler and the HTTP API",
		Long: `Start the daily scheduler, which runs the engine at scheduler.run_at in the
configured timezone, and the HTTP API. Stops on SIGINT or SIGTERM.

Example:
  cadence serve --config ./cadence.yaml
  cadence serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "HTTP listen address (overrides config)")

	return cmd
}

func serve(opts *ServeOptions, cmd *cobra.Command) error {
	log := logging.Component("serve")

	a, err := opts.openApp()
	if err != nil {
		return err
	}
	defer a.close()

	eng, err := opts.newEngine(a)
	if err != nil {
		return err
	}
	sched, err := opts.newScheduler(a, eng)
	if err != nil {
		return err
	}

	addr := opts.Config.HTTP.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Handler:           httpapi.NewRouter(a.store, sched, httpapi.WithClock(a.clock)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("http listening")
		if opts.Ready != nil {
			opts.Ready <- ln.Addr().String()
		}
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sched.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	log.Info().Msg("stopped gracefully")
	return nil
}
