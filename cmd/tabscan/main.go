package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	// Match GOMAXPROCS to the container CPU quota; quiet unless it fails.
	if _, err := maxprocs.Set(); err != nil {
		os.Stderr.WriteString("maxprocs: " + err.Error() + "\n")
	}

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
