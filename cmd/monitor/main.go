// monitor is the model hub monitoring binary: one-shot collection
// runs, an HTTP dashboard server, and an interactive console.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"modelhub-monitor/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.New().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
