// Command jobsh is an interactive shell with foreground and background job
// control.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

const (
	exitFailure = 1

	// exitInterrupted is the status of a session ended by a signal, matching
	// the 128+SIGINT convention of other shells.
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

// run executes the shell until it exits or the session receives SIGINT,
// SIGTERM or SIGHUP, and returns the process exit status.
func run() int {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGHUP,
	)
	defer stop()

	err := rootCmd().ExecuteContext(ctx)

	return exitCode(ctx, err)
}

func exitCode(ctx context.Context, err error) int {
	switch {
	case err != nil:
		return exitFailure
	case ctx.Err() != nil:
		return exitInterrupted
	default:
		return 0
	}
}
