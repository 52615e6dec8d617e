package main

import (
	"github.com/spf13/cobra"

	"github.com/tturner/ocppfuzz/internal/app"
)

func newSeedsCmd() *cobra.Command {
	opts := app.SeedsOptions{}

	cmd := &cobra.Command{
		Use:   "seeds",
		Short: "List the seed catalog",
		Long: `Seeds lists the seed frames by group. With --json it prints a seed file in
the format accepted by "generate --seeds", ready to edit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Out = cmd.OutOrStdout()
			return app.RunSeeds(opts)
		},
	}

	cmd.Flags().StringVar(&opts.SeedsFile, "seeds", "", "Seed file to list instead of the built-in catalog")
	cmd.Flags().StringVar(&opts.Group, "group", "", "Only this group (normal, violation, edge_case)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print as a seed file")

	return cmd
}
