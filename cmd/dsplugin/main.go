// Package main provides the entry point for the dsplugin CLI tool.
package main

import (
	"context"
	"os"
	"time"

	"github.com/agentstation/dsplugin/cmd/dsplugin/app"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	execErr := application.Execute(ctx, os.Args[1:])

	// Fresh context: the signal context may be cancelled already.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		application.Logger().Error().Err(err).Msg("Shutdown error")
	}

	app.ExitOnError(execErr)
}
