package cli

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/athanius07/EMESRT11/internal/logging"
	"github.com/athanius07/EMESRT11/internal/server"
	"github.com/athanius07/EMESRT11/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port int

	// Listener replaces the configured address. Tests use it to bind an
	// ephemeral port.
	Listener net.Listener
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Run the HTTP service until SIGINT or SIGTERM.

Routes:
  GET      /emesrt     dataset as JSON or CSV (?cached=1 ?include_changelog=1 ?format=csv)
  GET,POST /refresh    full refresh, returns {ok,count,ts}
  GET      /health     liveness and store kind
  GET      /metrics    Prometheus metrics (when enabled)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "listen port (overrides config)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *ServeOptions) error {
	formatter := formatterFor(cmd, opts.RootOptions)

	rt, err := loadRuntime(opts.RootOptions, logging.Stdout)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	defer rt.close()

	if opts.Port > 0 {
		rt.cfg.Server.Port = opts.Port
	}

	storeOpts := rt.storeOptions()
	open := server.PerRequest(storeOpts)
	if rt.cfg.Server.ReuseStore {
		var shared store.Store
		open, shared = server.Reused(ctx, storeOpts)
		defer shared.Close()
		rt.logger.Info("reusing one store across requests", zap.String("store", shared.Kind().String()))
	}

	srv := server.New(rt.cfg, rt.provider, open,
		server.WithLogger(rt.logger),
		server.WithMetrics(rt.metrics))

	if opts.Listener != nil {
		err = srv.RunListener(ctx, opts.Listener)
	} else {
		err = srv.Run(ctx)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeServeFailed, "server stopped", err)
	}
	return nil
}
