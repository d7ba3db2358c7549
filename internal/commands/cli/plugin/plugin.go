// Package plugin provides the commands that load and invoke plugins.
package plugin

import (
	"context"
	"fmt"

	"github.com/andrei-cloud/plugcore/internal/config"
	"github.com/andrei-cloud/plugcore/internal/host"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// newRuntime builds the runtime described by the loaded configuration.
// Built-in command output goes to the command's stdout.
func newRuntime(cmd *cobra.Command) (*host.Runtime, error) {
	rt, err := host.New(cmd.Context(), host.FromConfig(config.Get(), log.Logger, cmd.OutOrStdout()))
	if err != nil {
		return nil, fmt.Errorf("failed to create plugin runtime: %w", err)
	}

	return rt, nil
}

// loadPluginDir loads the configured plugin directory. A missing directory
// leaves the runtime with its built-ins only.
func loadPluginDir(ctx context.Context, rt *host.Runtime) error {
	dir := config.Get().Plugin.Path
	n, err := rt.LoadPluginDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to load plugins: %w", err)
	}
	log.Debug().Str("dir", dir).Int("commands", n).Msg("plugin directory loaded")

	return nil
}

func closeRuntime(cmd *cobra.Command, rt *host.Runtime) {
	if err := rt.Close(cmd.Context()); err != nil {
		log.Error().Err(err).Msg("failed to close plugin runtime")
	}
}
