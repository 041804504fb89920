// ./main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/fraudlens-cli/cmd"
	"github.com/xkilldash9x/fraudlens-cli/internal/observability"
)

// main is the entry point for the fraudlens CLI application.
func main() {
	// Listen for interrupt signals so a long clique enumeration or database
	// write can be abandoned cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer observability.Sync()

	cmd.ExecuteContext(ctx)
}
