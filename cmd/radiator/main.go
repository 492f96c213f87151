// radiator serves a build radiator: a wall dashboard of CI job health.
//
// Usage:
//
//	radiator serve
//	radiator ingest -f history.yaml [--db radiator.db]
//	radiator render [--db radiator.db] [--config radiator.yaml] [--grouped=false]
//	radiator version
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jenkinsci/radiatorview/internal/version"
)

var rootFlags struct {
	dbPath     string
	configPath string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "radiator",
		Short: "Build radiator for CI job history",
		Long:  "radiator renders the health of CI jobs as large colored tiles,\ngrouped by project, for display on a wall screen.",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
		Version:      version.Current(),
	}
	pf := root.PersistentFlags()
	pf.StringVar(&rootFlags.dbPath, "db", envOrDefault("RADIATOR_DB", "radiator.db"), "sqlite history database")
	pf.StringVar(&rootFlags.configPath, "config", envOrDefault("RADIATOR_CONFIG", "radiator.yaml"), "view configuration file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newIngestCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	initLogging()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "radiator: %v\n", err)
		os.Exit(1)
	}
}

func initLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(os.Getenv("RADIATOR_LOG_LEVEL"))) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
