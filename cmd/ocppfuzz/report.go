package main

import (
	"github.com/spf13/cobra"

	"github.com/tturner/ocppfuzz/internal/app"
)

func newReportCmd() *cobra.Command {
	opts := app.ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report <results.csv>",
		Short: "Summarize a replay result CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.CSVFile = args[0]
			opts.Out = cmd.OutOrStdout()
			return app.RunReport(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "text", "Output format (text, plain, json)")
	cmd.Flags().StringVar(&opts.ReportFile, "out", "", "Also write the JSON report to a file")

	return cmd
}
