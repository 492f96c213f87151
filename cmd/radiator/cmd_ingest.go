package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jenkinsci/radiatorview/internal/store"
)

var ingestFlags struct {
	file string
}

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import a YAML job history file into the history database",
		Args:  cobra.NoArgs,
		RunE:  runIngest,
	}
	cmd.Flags().StringVarP(&ingestFlags.file, "file", "f", "", "history file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runIngest(cmd *cobra.Command, _ []string) error {
	h, err := store.LoadHistory(ingestFlags.file)
	if err != nil {
		return err
	}
	db, err := store.Open(rootFlags.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Import(cmd.Context(), h); err != nil {
		return fmt.Errorf("import %s: %w", ingestFlags.file, err)
	}
	builds := 0
	for _, j := range h.Jobs {
		builds += len(j.Builds)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d jobs, %d builds, %d queue items into %s\n",
		len(h.Jobs), builds, len(h.Queue), rootFlags.dbPath)
	return nil
}
