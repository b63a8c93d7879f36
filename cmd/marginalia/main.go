// Command marginalia annotates documents with located review comments.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/cli"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logger.Sync()

	app, err := wire(os.Getenv(HomeEnv))
	if err != nil {
		fmt.Fprintf(os.Stderr, "marginalia: %v\n", err)
		return 1
	}
	defer app.Close()

	cli.SetVersion(version)
	cli.SetServices(app.Services)

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
