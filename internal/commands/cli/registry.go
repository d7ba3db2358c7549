// Package cli provides centralized command registration.
package cli

import (
	"github.com/andrei-cloud/plugcore/internal/commands/cli/browse"
	"github.com/andrei-cloud/plugcore/internal/commands/cli/plugin"
	"github.com/andrei-cloud/plugcore/internal/commands/cli/watch"
	"github.com/spf13/cobra"
)

// RegisterCommands registers all root commands.
func RegisterCommands(root *cobra.Command) error {
	root.AddCommand(plugin.NewLoadCommand())
	root.AddCommand(plugin.NewListCommand())
	root.AddCommand(plugin.NewRunCommand())
	root.AddCommand(watch.NewWatchCommand())
	root.AddCommand(browse.NewBrowseCommand())

	return nil
}
