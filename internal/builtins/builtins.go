// Package builtins provides the commands every plugcore host registers at init.
package builtins

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/andrei-cloud/plugcore/pkg/plugincore"
)

// Version of the plugin runtime reported by the version command.
const (
	Version      = "1.0.0"
	MajorVersion = 1
)

// Catalog is the part of a host the built-ins report on.
type Catalog interface {
	Count() int
	Names() []string
}

// Commands returns help, version and status bound to c. Their output goes to out.
//
//	help    prints the registered command names, returns 0
//	version prints the runtime version, returns the major version
//	status  prints the command count, returns it clamped to MaxInt32
func Commands(c Catalog, out io.Writer) []plugincore.CommandDesc[plugincore.Command] {
	return []plugincore.CommandDesc[plugincore.Command]{
		{Name: "help", Impl: func() int32 {
			_, _ = fmt.Fprintf(out, "Available commands: %s\n", strings.Join(c.Names(), ", "))

			return 0
		}},
		{Name: "version", Impl: func() int32 {
			_, _ = fmt.Fprintf(out, "plugcore v%s\n", Version)

			return MajorVersion
		}},
		{Name: "status", Impl: func() int32 {
			n := c.Count()
			_, _ = fmt.Fprintf(out, "Status: OK, %d commands registered\n", n)

			return clamp(n)
		}},
	}
}

func clamp(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}

	return int32(n)
}
