package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tturner/ocppfuzz/internal/app"
)

type serverFlags struct {
	configPath          string
	listenIP            string
	port                int
	mode                string
	delayMs             int
	jitterMs            int
	dropEveryN          int
	closeEveryN         int
	requiredSubprotocol string
	pcapFile            string
	captureInterface    string
	logLevel            string
	stats               bool
}

func newServerCmd() *cobra.Command {
	flags := &serverFlags{}

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run a permissive OCPP 1.6-J central system",
		Long: `Run ocppfuzz as a central system endpoint to fuzz against.

The server accepts WebSocket connections on /<chargePointId>, requires the
ocpp1.6 subprotocol and answers every charge point action (and every central
system action, so direction violations are observable) with a plausible
CallResult. Malformed frames get the matching CallError.

Fault injection (latency, dropped responses, abrupt closes) is set with
--mode or the individual flags.

Press Ctrl+C to stop the server gracefully.`,
		Example: `  # Listen on 0.0.0.0:9000
  ocppfuzz server

  # Loopback only, with dropped responses and closes
  ocppfuzz server --listen-ip 127.0.0.1 --mode hostile --stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.ServerOptions{
				ConfigPath:          flags.configPath,
				ListenIP:            flags.listenIP,
				Mode:                flags.mode,
				RequiredSubprotocol: flags.requiredSubprotocol,
				PCAPFile:            flags.pcapFile,
				CaptureInterface:    flags.captureInterface,
				LogLevel:            flags.logLevel,
				Stats:               flags.stats,
				Out:                 cmd.OutOrStdout(),
			}
			if cmd.Flags().Changed("port") {
				opts.Port = &flags.port
			}
			if cmd.Flags().Changed("delay-ms") {
				opts.DelayMs = &flags.delayMs
			}
			if cmd.Flags().Changed("jitter-ms") {
				opts.JitterMs = &flags.jitterMs
			}
			if cmd.Flags().Changed("drop-every") {
				opts.DropEveryN = &flags.dropEveryN
			}
			if cmd.Flags().Changed("close-every") {
				opts.CloseEveryN = &flags.closeEveryN
			}
			return app.RunServer(opts)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Config file (default ocppfuzz.yaml when present)")
	cmd.Flags().StringVar(&flags.listenIP, "listen-ip", "", "Listen address (default 0.0.0.0)")
	cmd.Flags().IntVar(&flags.port, "port", 9000, "Listen port")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "Fault preset (baseline, flaky, hostile, perf)")
	cmd.Flags().IntVar(&flags.delayMs, "delay-ms", 0, "Base response delay in milliseconds")
	cmd.Flags().IntVar(&flags.jitterMs, "jitter-ms", 0, "Random extra delay in milliseconds")
	cmd.Flags().IntVar(&flags.dropEveryN, "drop-every", 0, "Drop every Nth response")
	cmd.Flags().IntVar(&flags.closeEveryN, "close-every", 0, "Abruptly close the connection on every Nth response")
	cmd.Flags().StringVar(&flags.requiredSubprotocol, "subprotocol", "", "Required WebSocket subprotocol (default ocpp1.6)")
	cmd.Flags().StringVar(&flags.pcapFile, "pcap", "", "Capture traffic to a pcap file")
	cmd.Flags().StringVar(&flags.captureInterface, "capture-interface", "", "Capture interface (auto-detected when empty)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level (silent, error, info, verbose, debug)")
	cmd.Flags().BoolVar(&flags.stats, "stats", false, "Print frame counters every second")

	cmd.AddCommand(newServerModesCmd())
	return cmd
}

func newServerModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List fault presets",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available modes:")
			fmt.Fprintln(out, "  baseline: no faults")
			fmt.Fprintln(out, "  flaky: 20ms+30ms jitter, drop every 10th response")
			fmt.Fprintln(out, "  hostile: 50ms+100ms jitter, drop every 5th response, close every 25th")
			fmt.Fprintln(out, "  perf: no faults, errors-only logging")
		},
	}
}
