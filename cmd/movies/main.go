// Package main provides the entry point for the movies catalog service.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "movies",
		Short: "Golden Raspberry movie catalog",
		Long: `Movies serves a catalog of award nominated movies and reports the producers
with the shortest and the longest gap between two consecutive wins.

Commands:
  serve       Serve the HTTP API
  import      Import movies from CSV files
  intervals   Print the producer win interval report
  checkpoint  Snapshot the catalog and truncate its log`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")

	rootCmd.AddCommand(
		newServeCommand(&configPath),
		newImportCommand(&configPath),
		newIntervalsCommand(&configPath),
		newCheckpointCommand(&configPath),
	)

	return rootCmd
}
