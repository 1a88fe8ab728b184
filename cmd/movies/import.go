package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/liznear/golden-raspberry/ingest"
)

func newImportCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import [glob]",
		Short: "Import movies from CSV files",
		Long:  "Import movies from the ';' separated CSV files matching glob ('**' supported). Defaults to ingest.csv_glob.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := a.Close(); err == nil {
					err = closeErr
				}
			}()

			pattern := a.cfg.Ingest.CSVGlob
			if len(args) == 1 {
				pattern = args[0]
			}

			n, err := ingest.NewLoader(a.db, a.logger.Named("ingest")).LoadGlob(cmd.Context(), pattern)
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Imported %d movies\n", n)
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog size: %d\n", a.db.Len())
			return nil
		},
	}
}
