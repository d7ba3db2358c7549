// Package browse provides an interactive terminal browser for registered commands.
package browse

import (
	"bytes"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/andrei-cloud/plugcore/internal/config"
	"github.com/andrei-cloud/plugcore/internal/errorcodes"
	"github.com/andrei-cloud/plugcore/internal/host"
	"github.com/andrei-cloud/plugcore/pkg/plugincore"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse and run commands interactively",
		Long: `Load the plugin directory and open a terminal view of every registered
command. Select a command and press enter to run it.`,
		Args: cobra.NoArgs,
		RunE: runBrowse,
	}
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	cfg := config.Get()

	// Built-in output is captured and shown in the result panel.
	var captured bytes.Buffer
	rt, err := host.New(cmd.Context(), host.FromConfig(cfg, log.Logger, &captured))
	if err != nil {
		return errorcodes.ErrConfig.Wrap(err)
	}
	defer func() {
		if err := rt.Close(cmd.Context()); err != nil {
			log.Error().Err(err).Msg("failed to close plugin runtime")
		}
	}()

	if _, err := rt.LoadPluginDir(cmd.Context(), cfg.Plugin.Path); err != nil {
		return errorcodes.ErrLoad.Wrap(err)
	}

	run := func(name string) result {
		captured.Reset()
		var ret int32
		status := plugincore.Run(rt.Host, name, &ret)

		return result{name: name, status: status, ret: ret, output: captured.String()}
	}

	model := newBrowseModel(rt.Namespace(), rt.Names(), run)
	program := tea.NewProgram(model, tea.WithAltScreen(),
		tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}

	return nil
}
