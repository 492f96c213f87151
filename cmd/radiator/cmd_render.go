package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jenkinsci/radiatorview/internal/config"
	"github.com/jenkinsci/radiatorview/internal/server"
	"github.com/jenkinsci/radiatorview/internal/store"
)

var renderFlags struct {
	grouped bool
}

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the radiator once and print the JSON snapshot",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}
	cmd.Flags().BoolVar(&renderFlags.grouped, "grouped", true, "group jobs by project (defaults to view.group_by_prefix)")
	return cmd
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadOrDefault(rootFlags.configPath)
	if err != nil {
		return err
	}
	db, err := store.Open(rootFlags.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	grouped := cfg.Settings().GroupByPrefix
	if cmd.Flags().Changed("grouped") {
		grouped = renderFlags.grouped
	}
	snap, err := server.Render(cmd.Context(), db, cfg, grouped)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
