package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	appLog "calview/internal/log"
)

func main() {
	appLog.Info("calview starting", "version", "0.1.0")

	cmd, opts, err := parseArgs(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	code := run(ctx, cmd, opts)
	appLog.Info("calview exiting", "command", cmd, "code", code)
	os.Exit(code)
}
