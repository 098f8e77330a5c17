package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/pokedex/internal/cli"
	"github.com/rshade/pokedex/pkg/version"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version.GetVersion())
	return root.ExecuteContext(ctx)
}

// extractLookupExitCode returns the exit code for err: 0 for nil, the
// LookupExitError code when one is in the chain, 1 otherwise.
func extractLookupExitCode(err error) int {
	if err == nil {
		return 0
	}
	var lookupErr *cli.LookupExitError
	if errors.As(err, &lookupErr) {
		return lookupErr.ExitCode
	}
	return 1
}

func main() {
	err := run()
	code := extractLookupExitCode(err)
	if code == 0 {
		return
	}

	// Lookup failures have already been rendered by the command.
	var lookupErr *cli.LookupExitError
	if !errors.As(err, &lookupErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}
