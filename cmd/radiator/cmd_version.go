package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jenkinsci/radiatorview/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the radiator version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			v := version.Current()
			if !version.IsRelease() {
				v += " (development build)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
		},
	}
}
