// Package watch provides the long-running plugin watch command.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andrei-cloud/plugcore/internal/config"
	"github.com/andrei-cloud/plugcore/internal/errorcodes"
	"github.com/andrei-cloud/plugcore/internal/host"
	"github.com/andrei-cloud/plugcore/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Load plugins as they appear in the plugin directory",
		Long: `Load every plugin in the configured plugin directory, then keep loading
plugin files as they are created until interrupted. When metrics.addr is set,
Prometheus metrics and a health check are served on that address.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg := config.Get()

	// Make sure plugin directory exists.
	if err := os.MkdirAll(cfg.Plugin.Path, 0o755); err != nil {
		return errorcodes.ErrConfig.Wrap(fmt.Errorf("failed to create plugin directory: %w", err))
	}

	rt, err := host.New(cmd.Context(), host.FromConfig(cfg, log.Logger, cmd.OutOrStdout()))
	if err != nil {
		return errorcodes.ErrConfig.Wrap(err)
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close plugin runtime")
		}
	}()

	// shutdown on SIGINT or SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.Watch(gctx, cfg.Plugin.Path)
	})

	if cfg.Metrics.Addr != "" {
		srv, err := server.NewServer(cfg.Metrics.Addr, rt)
		if err != nil {
			return errorcodes.ErrConfig.Wrap(err)
		}
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return srv.Stop(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return errorcodes.ErrLoad.Wrap(err)
	}

	log.Info().Msg("shutting down...")
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stopped watching %s: %d plugin(s), %d command(s)\n",
		cfg.Plugin.Path, len(rt.Libraries()), rt.Count())

	return nil
}
