package plugin

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/andrei-cloud/plugcore/internal/errorcodes"
	"github.com/andrei-cloud/plugcore/internal/host"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// listing is the machine readable form of the list output.
type listing struct {
	Namespace string       `json:"namespace" yaml:"namespace"`
	Commands  []string     `json:"commands"  yaml:"commands"`
	Plugins   []pluginInfo `json:"plugins"   yaml:"plugins"`
}

type pluginInfo struct {
	ID       string    `json:"id"       yaml:"id"`
	Name     string    `json:"name"     yaml:"name"`
	Version  uint32    `json:"version"  yaml:"version"`
	Path     string    `json:"path"     yaml:"path"`
	Commands int       `json:"commands" yaml:"commands"`
	LoadedAt time.Time `json:"loadedAt" yaml:"loadedAt"`
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered commands and loaded plugins",
		Long:  `Load the plugin directory and list every registered command along with the plugins that contributed them.`,
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	cmd.Flags().StringP("format", "f", "table", "output format (table, json, yaml)")

	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return errorcodes.ErrConfig.Wrap(err)
	}
	defer closeRuntime(cmd, rt)

	if err := loadPluginDir(cmd.Context(), rt); err != nil {
		return errorcodes.ErrLoad.Wrap(err)
	}

	return writeListing(cmd.OutOrStdout(), format, describe(rt))
}

func describe(rt *host.Runtime) listing {
	l := listing{
		Namespace: rt.Namespace(),
		Commands:  rt.Names(),
		Plugins:   []pluginInfo{},
	}
	for _, lib := range rt.Libraries() {
		l.Plugins = append(l.Plugins, pluginInfo{
			ID:       lib.ID,
			Name:     lib.PluginName,
			Version:  lib.Version,
			Path:     lib.Path,
			Commands: lib.Registered,
			LoadedAt: lib.LoadedAt,
		})
	}

	return l
}

func writeListing(w io.Writer, format string, l listing) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(l)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(l); err != nil {
			return err
		}

		return enc.Close()
	case "table":
		// Create tabwriter for aligned output.
		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintf(tw, "Namespace: %s\n\n", l.Namespace)
		_, _ = fmt.Fprintln(tw, "Plugin\tVersion\tCommands\tPath")
		_, _ = fmt.Fprintln(tw, "------\t-------\t--------\t----")
		for _, p := range l.Plugins {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", p.Name, p.Version, p.Commands, p.Path)
		}
		_, _ = fmt.Fprintf(tw, "\nCommands (%d):\n", len(l.Commands))
		for _, c := range l.Commands {
			_, _ = fmt.Fprintf(tw, "  %s\n", c)
		}

		return tw.Flush()
	default:
		return errorcodes.ErrConfig.Wrap(fmt.Errorf("unknown format %q", format))
	}
}
