package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jenkinsci/radiatorview/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the radiator HTTP, websocket and gRPC health server",
		Long: `Serves the radiator API until interrupted. The listen addresses, refresh
interval and mDNS advertisement are read from RADIATOR_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// server.Run reads its paths from the environment; flags win over it.
	if cmd.Flags().Changed("db") {
		if err := os.Setenv("RADIATOR_DB", rootFlags.dbPath); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("config") {
		if err := os.Setenv("RADIATOR_CONFIG", rootFlags.configPath); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx)
}
