package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andrei-cloud/plugcore/internal/commands/cli"
	"github.com/andrei-cloud/plugcore/internal/errorcodes"
	"github.com/rs/zerolog/log"
)

// main builds the command tree and maps failures to exit codes.
func main() {
	root, err := cli.NewRootCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errorcodes.ErrGeneric.Code)
	}

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(errorcodes.ExitCode(err))
	}
}
