// Package cli provides the CLI command structure for plugcore.
package cli

import (
	"fmt"

	"github.com/andrei-cloud/plugcore/internal/config"
	"github.com/andrei-cloud/plugcore/internal/errorcodes"
	"github.com/andrei-cloud/plugcore/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCommand creates and returns the root command with all subcommands.
func NewRootCommand() (*cobra.Command, error) {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "plugcore",
		Short: "In-process command and plugin runtime",
		Long: `A plugin runtime that loads native Go and WebAssembly plugins, registers
their commands and runs them behind a fault boundary.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Initialize configuration before running any command.
			if err := config.Initialize(cfgFile); err != nil {
				return errorcodes.ErrConfig.Wrap(fmt.Errorf("failed to initialize configuration: %w", err))
			}
			if err := config.BindFlags(cmd.Flags()); err != nil {
				return errorcodes.ErrConfig.Wrap(err)
			}

			cfg := config.Get()
			logging.InitLogger(cfg.Log.Level, cfg.Log.Format)

			return nil
		},
	}

	// Add persistent flags that affect all commands.
	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default is $HOME/.plugcore/config.yaml)")

	// Add global flags that can override config file settings.
	rootCmd.PersistentFlags().String("namespace", "bu", "plugin runtime namespace")
	rootCmd.PersistentFlags().String("plugin-path", "plugins", "path to plugin directory")
	rootCmd.PersistentFlags().String("trusted-root", "", "only load plugins below this directory")
	rootCmd.PersistentFlags().String("symbol", "PluginInfo", "exported manifest accessor name")
	rootCmd.PersistentFlags().String("log-level", "info", "logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "human", "logging format (human, json)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "address to serve metrics on while watching")

	// Register all commands.
	if err := RegisterCommands(rootCmd); err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	return rootCmd, nil
}
