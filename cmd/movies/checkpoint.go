package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCheckpointCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "checkpoint",
		Short: "Snapshot the catalog and truncate its log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := a.Close(); err == nil {
					err = closeErr
				}
			}()

			if err := a.db.Checkpoint(); err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Checkpointed %d movies\n", a.db.Len())
			return nil
		},
	}
}
