package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tturner/ocppfuzz/internal/app"
)

func buildInfo() app.BuildInfo {
	return app.BuildInfo{Version: version, Commit: commit, Date: date}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ocppfuzz version %s\n", version)
			fmt.Fprintf(out, "commit: %s\n", commit)
			fmt.Fprintf(out, "date: %s\n", date)
		},
	}
}
