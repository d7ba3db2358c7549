package plugin

import (
	"fmt"

	"github.com/andrei-cloud/plugcore/internal/errorcodes"
	"github.com/andrei-cloud/plugcore/pkg/plugincore"
	"github.com/spf13/cobra"
)

// exampleCommand is run after loading when a plugin provides it.
const exampleCommand = "example"

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load [PATH...]",
		Short: "Load plugins and run the example command",
		Long: `Initialize the plugin runtime, load each plugin given on the command line
and report the registry size before and after. When a loaded plugin provides
an "example" command it is run and its result printed.`,
		Args: cobra.ArbitraryArgs,
		RunE: runLoad,
	}
}

func runLoad(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return errorcodes.ErrConfig.Wrap(err)
	}
	defer closeRuntime(cmd, rt)

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Initial registered count: %d\n", rt.Count())

	for _, path := range args {
		n, err := rt.Load(cmd.Context(), path)
		if err != nil {
			return errorcodes.ErrLoad.Wrap(err)
		}
		_, _ = fmt.Fprintf(out, "Registered %d command(s) from %s\n", n, path)
	}

	_, _ = fmt.Fprintf(out, "Final registered count: %d\n", rt.Count())

	if !rt.Exists(exampleCommand) {
		_, _ = fmt.Fprintf(out, "Command '%s' not registered.\n", exampleCommand)

		return nil
	}

	_, _ = fmt.Fprintf(out, "Running '%s' command...\n", exampleCommand)
	var ret int32
	if status := plugincore.Run(rt.Host, exampleCommand, &ret); status != plugincore.StatusOK {
		return errorcodes.FromStatus(status)
	}
	_, _ = fmt.Fprintf(out, "Command '%s' returned: %d\n", exampleCommand, ret)

	return nil
}
