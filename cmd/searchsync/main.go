// Package main provides the entry point for the searchsync CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/searchsync/internal/adapters/driving/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetServiceFactory(buildServices)
	code := cli.Execute(ctx)

	stop()
	os.Exit(code)
}
