package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/liznear/golden-raspberry/interval"
	"github.com/liznear/golden-raspberry/model"
)

// Output formats of the intervals command.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func newIntervalsCommand(configPath *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "intervals",
		Short: "Print the producers with the shortest and the longest gap between two wins",
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

			report, err := interval.Report(cmd.Context(), a.db)
			if err != nil {
				return err
			}
			return renderReport(cmd.OutOrStdout(), report, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")

	return cmd
}

func renderReport(w io.Writer, report model.IntervalReport, format string) error {
	switch format {
	case outputTable:
		renderTable(w, report)
		return nil
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, report model.IntervalReport) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Header = text.FormatDefault
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.AppendHeader(table.Row{"Kind", "Producer", "Interval", "Previous Win", "Following Win"})

	appendRows := func(kind string, intervals []model.ProducerInterval) {
		for _, pi := range intervals {
			tbl.AppendRow(table.Row{kind, pi.Producer, pi.Interval, pi.PreviousWin, pi.FollowingWin})
		}
	}
	appendRows("min", report.Min)
	appendRows("max", report.Max)

	tbl.AppendFooter(table.Row{"", "", "", "Total", strconv.Itoa(len(report.Min) + len(report.Max))})
	tbl.Render()
}
