package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tturner/ocppfuzz/internal/app"
)

type generateFlags struct {
	configPath  string
	dir         string
	target      int
	minVariants int
	maxVariants int
	baseline    bool
	seed        int64
	seedsFile   string
	group       string
	jsonlFile   string
	reportFile  string
	summary     bool
	progress    bool
	logLevel    string
}

func newGenerateCmd() *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a mutated corpus from the seed catalog",
		Long: `Generate writes numbered OCPP frames (NNNN_<Action>_<kind>.json) into a
corpus directory. Each pick takes a random seed and either saves it unchanged
(--baseline) or fans it out into mutated variants until --target files exist.

Use --seed for a reproducible corpus.`,
		Example: `  # 100 files into ./corpus_out
  ocppfuzz generate

  # Reproducible corpus with unmodified seeds mixed in
  ocppfuzz generate --dir corpus --target 500 --min 1 --max 3 --baseline --seed 7

  # Only the direction-violation seeds
  ocppfuzz generate --group violation`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.GenerateOptions{
				ConfigPath: flags.configPath,
				Dir:        flags.dir,
				Baseline:   flags.baseline,
				SeedsFile:  flags.seedsFile,
				Group:      flags.group,
				JSONLFile:  flags.jsonlFile,
				ReportFile: flags.reportFile,
				Summary:    flags.summary,
				Progress:   flags.progress,
				LogLevel:   flags.logLevel,
				Out:        cmd.OutOrStdout(),
				ErrOut:     cmd.ErrOrStderr(),
			}
			if cmd.Flags().Changed("target") {
				opts.Target = &flags.target
			}
			if cmd.Flags().Changed("min") {
				opts.MinVariants = &flags.minVariants
			}
			if cmd.Flags().Changed("max") {
				opts.MaxVariants = &flags.maxVariants
			}
			if cmd.Flags().Changed("seed") {
				opts.Seed = &flags.seed
			}
			return app.RunGenerate(opts)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Config file (default ocppfuzz.yaml when present)")
	cmd.Flags().StringVar(&flags.dir, "dir", "", "Output directory (default corpus_out)")
	cmd.Flags().IntVar(&flags.target, "target", 100, "Number of files to write")
	cmd.Flags().IntVar(&flags.minVariants, "min", 1, "Minimum variants per seed pick")
	cmd.Flags().IntVar(&flags.maxVariants, "max", 5, "Maximum variants per seed pick")
	cmd.Flags().BoolVar(&flags.baseline, "baseline", false, "Also save unmodified seeds")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "Random seed for a reproducible corpus")
	cmd.Flags().StringVar(&flags.seedsFile, "seeds", "", "JSONC seed file replacing the built-in catalog")
	cmd.Flags().StringVar(&flags.group, "group", "", "Restrict seeds to one group (normal, violation, edge_case)")
	cmd.Flags().StringVar(&flags.jsonlFile, "jsonl", "", "Also append the corpus to a JSON lines file")
	cmd.Flags().StringVar(&flags.reportFile, "report", "", "Write a JSON corpus report")
	cmd.Flags().BoolVar(&flags.summary, "summary", false, "Print a corpus summary")
	cmd.Flags().BoolVar(&flags.progress, "progress", false, "Show a progress bar on stderr")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level (silent, error, info, verbose, debug)")

	cmd.Flags().SetNormalizeFunc(variantFlagAliases)

	return cmd
}

// variantFlagAliases accepts --min-variants and --max-variants for --min and
// --max.
func variantFlagAliases(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "min-variants":
		name = "min"
	case "max-variants":
		name = "max"
	}
	return pflag.NormalizedName(name)
}
