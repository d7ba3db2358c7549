package plugin

import (
	"fmt"

	"github.com/andrei-cloud/plugcore/internal/errorcodes"
	"github.com/andrei-cloud/plugcore/pkg/plugincore"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run NAME",
		Short: "Run a command",
		Long: `Load the plugin directory and run the named command. The exit code reflects
the invocation status: 4 when the command is not registered and 5 when it
faults.`,
		Args: cobra.ExactArgs(1),
		RunE: runCommand,
	}
}

func runCommand(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return errorcodes.ErrConfig.Wrap(err)
	}
	defer closeRuntime(cmd, rt)

	if err := loadPluginDir(cmd.Context(), rt); err != nil {
		return errorcodes.ErrLoad.Wrap(err)
	}

	name := args[0]
	var ret int32
	status := plugincore.Run(rt.Host, name, &ret)
	if status != plugincore.StatusOK {
		return fmt.Errorf("command %q: %w", name, errorcodes.FromStatus(status))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Command '%s' returned: %d\n", name, ret)

	return nil
}
