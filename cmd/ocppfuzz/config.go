package main

import (
	"github.com/spf13/cobra"

	"github.com/tturner/ocppfuzz/internal/app"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or validate configuration",
	}
	cmd.AddCommand(newConfigPrintDefaultCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigPrintDefaultCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "print-default",
		Short: "Print the default configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunConfigPrintDefault(output, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config]",
		Short: "Validate a config file (default ocppfuzz.yaml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return app.RunConfigValidate(path, cmd.OutOrStdout())
		},
	}
}
