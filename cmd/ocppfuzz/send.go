package main

import (
	"github.com/spf13/cobra"

	"github.com/tturner/ocppfuzz/internal/app"
)

type sendFlags struct {
	configPath       string
	input            string
	uri              string
	subprotocols     []string
	timeout          float64
	replaceUID       bool
	noReconnect      bool
	csvFile          string
	jsonFile         string
	reportFile       string
	summary          bool
	pcapFile         string
	captureInterface string
	progress         bool
	logLevel         string
}

func newSendCmd() *cobra.Command {
	flags := &sendFlags{}

	cmd := &cobra.Command{
		Use:   "send [input]",
		Short: "Replay a corpus against a central system",
		Long: `Send replays frames over one WebSocket connection, one at a time, and labels
each outcome: CallResult, CallError:<code>, TIMEOUT, CLOSED:<code> or EXC:<reason>.

input (or --input) is a corpus directory (*.json in name order), a .jsonl
file or a single JSON file. It defaults to the generator directory. Results are written to CSV
after the run.`,
		Example: `  # Replay ./corpus_out against the default endpoint
  ocppfuzz send

  # Fresh correlation ids, 2s timeout, capture traffic
  ocppfuzz send --input corpus --uri ws://10.0.0.5:9000/CP_1 --replace-uid --timeout 2 --pcap run.pcap`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.SendOptions{
				ConfigPath:       flags.configPath,
				URI:              flags.uri,
				Subprotocols:     flags.subprotocols,
				ReplaceUID:       flags.replaceUID,
				NoReconnect:      flags.noReconnect,
				CSVFile:          flags.csvFile,
				JSONFile:         flags.jsonFile,
				ReportFile:       flags.reportFile,
				Summary:          flags.summary,
				PCAPFile:         flags.pcapFile,
				CaptureInterface: flags.captureInterface,
				Progress:         flags.progress,
				LogLevel:         flags.logLevel,
				Version:          buildInfo(),
				Out:              cmd.OutOrStdout(),
				ErrOut:           cmd.ErrOrStderr(),
			}
			switch {
			case flags.input != "":
				opts.Input = flags.input
			case len(args) == 1:
				opts.Input = args[0]
			}
			if cmd.Flags().Changed("timeout") {
				opts.TimeoutSec = &flags.timeout
			}
			return app.RunSend(opts)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Config file (default ocppfuzz.yaml when present)")
	cmd.Flags().StringVar(&flags.input, "input", "", "Corpus directory, .jsonl or JSON file (overrides the positional input)")
	cmd.Flags().StringVar(&flags.uri, "uri", "", "Central system URI (default ws://127.0.0.1:9000/CP_REPLAY)")
	cmd.Flags().StringSliceVar(&flags.subprotocols, "subp", nil, "WebSocket subprotocols to offer (default ocpp1.6)")
	cmd.Flags().Float64Var(&flags.timeout, "timeout", 8, "Response timeout in seconds")
	cmd.Flags().BoolVar(&flags.replaceUID, "replace-uid", false, "Replace every string correlation id with a fresh UUID")
	cmd.Flags().BoolVar(&flags.noReconnect, "no-reconnect", false, "Do not redial after the server closes the connection")
	cmd.Flags().StringVar(&flags.csvFile, "csv", "", "Result CSV path (default replay_result.csv)")
	cmd.Flags().StringVar(&flags.jsonFile, "json", "", "Also write per-frame results as JSON")
	cmd.Flags().StringVar(&flags.reportFile, "report", "", "Write a JSON run report")
	cmd.Flags().BoolVar(&flags.summary, "summary", false, "Print a run summary")
	cmd.Flags().StringVar(&flags.pcapFile, "pcap", "", "Capture the session to a pcap file")
	cmd.Flags().StringVar(&flags.captureInterface, "capture-interface", "", "Capture interface (auto-detected when empty)")
	cmd.Flags().BoolVar(&flags.progress, "progress", false, "Show a progress bar on stderr")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level (silent, error, info, verbose, debug)")

	return cmd
}
