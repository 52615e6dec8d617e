package app

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tturner/ocppfuzz/internal/capture"
	"github.com/tturner/ocppfuzz/internal/config"
	ocppErrors "github.com/tturner/ocppfuzz/internal/errors"
	"github.com/tturner/ocppfuzz/internal/metrics"
	"github.com/tturner/ocppfuzz/internal/progress"
	"github.com/tturner/ocppfuzz/internal/replay"
	"github.com/tturner/ocppfuzz/internal/report"
	"github.com/tturner/ocppfuzz/internal/transport"
)

// SendOptions are the send command inputs. Empty or nil values keep the
// configured setting.
type SendOptions struct {
	ConfigPath       string
	Input            string
	URI              string
	Subprotocols     []string
	TimeoutSec       *float64
	ReplaceUID       bool
	NoReconnect      bool
	CSVFile          string
	JSONFile         string
	ReportFile       string
	Summary          bool
	PCAPFile         string
	CaptureInterface string
	Progress         bool
	LogLevel         string
	Version          BuildInfo
	Out              io.Writer
	ErrOut           io.Writer
}

// BuildInfo identifies the binary in reports.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func RunSend(opts SendOptions) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()
	_, err := Send(ctx, opts)
	return err
}

// Send replays the inputs and writes the result files. It returns the
// per-input metrics, or nil when there was nothing to send.
func Send(ctx context.Context, opts SendOptions) ([]metrics.Metric, error) {
	out := stdoutOr(opts.Out)

	cfg, cfgPath, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	applySendOverrides(cfg, opts)
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, ocppErrors.WrapConfigError(err, cfgPath)
	}
	sc := cfg.Sender

	logger, err := newLogger(cfg.Logging, opts.LogLevel)
	if err != nil {
		return nil, err
	}
	defer logger.Close()

	input := opts.Input
	if input == "" {
		input = cfg.Generator.Dir
	}
	inputs, err := replay.ReadInputs(input)
	if err != nil {
		return nil, ocppErrors.WrapCorpusError(err, input)
	}
	if len(inputs) == 0 {
		fmt.Fprintln(out, "No input JSON found.")
		return nil, nil
	}

	u, err := transport.ParseURI(sc.URI)
	if err != nil {
		return nil, ocppErrors.WrapConnectError(err, sc.URI)
	}
	timeout := time.Duration(sc.TimeoutMs) * time.Millisecond
	logger.LogStartup(input, sc.URI, sc.Subprotocols, timeout, sc.ReplaceUID)

	if opts.PCAPFile != "" {
		port, _ := strconv.Atoi(u.Port())
		capt, err := capture.Start(capture.Options{
			Interface:  opts.CaptureInterface,
			Host:       u.Hostname(),
			Port:       port,
			OutputFile: opts.PCAPFile,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("start packet capture: %w", err)
		}
		defer func() {
			if err := capt.Stop(); err != nil {
				logger.Error("Stop packet capture: %v", err)
			}
			st := capt.Stats()
			logger.Info("Captured %d packets (%d with payload) on %s to %s", st.Packets, st.PayloadPackets, capt.Interface(), opts.PCAPFile)
		}()
	}

	var barOut io.Writer
	if opts.Progress {
		barOut = stderrOr(opts.ErrOut)
	}
	bar := progress.NewBar(barOut, int64(len(inputs)), "frames", "Replaying")

	sink := metrics.NewSink()
	var subprotocol string
	sender, err := replay.NewSender(replay.Config{
		Dialer:     transport.NewWebSocketDialer(u.String(), sc.Subprotocols),
		Timeout:    timeout,
		ReplaceUID: sc.ReplaceUID,
		Reconnect:  sc.ReconnectEnabled(),
		Logger:     logger,
		OnConnect: func(sp string) {
			subprotocol = sp
			fmt.Fprintf(out, "[HS] negotiated subprotocol = %q\n", sp)
		},
		OnResult: func(r replay.Result) {
			fmt.Fprintf(out, "%-35s -> %s\n", r.Input, r.Label)
			sink.Record(metricOf(r))
			bar.Step(r.Input)
		},
	})
	if err != nil {
		return nil, err
	}

	replayed, err := sender.Replay(ctx, inputs)
	bar.Finish()
	if err != nil && replayed == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ocppErrors.WrapConnectError(err, sc.URI)
	}
	if err != nil {
		logger.Error("Replay interrupted: %v", err)
	}

	results := sink.GetMetrics()
	if err := writeResults(results, sc.CSVFile, sc.JSONFile); err != nil {
		return results, err
	}
	fmt.Fprintf(out, "wrote CSV: %s\n", sc.CSVFile)
	if sc.JSONFile != "" {
		fmt.Fprintf(out, "wrote JSON: %s\n", sc.JSONFile)
	}

	rep := report.RunReport{
		GeneratedAt: report.FormatTimestamp(),
		Version:     opts.Version.Version,
		Commit:      opts.Version.Commit,
		Date:        opts.Version.Date,
		URI:         sc.URI,
		Subprotocol: subprotocol,
		Inputs:      input,
		Summary:     sink.GetSummary(),
		Results:     results,
	}
	if opts.Summary {
		fmt.Fprintln(out, report.RenderRun(rep))
	}
	if opts.ReportFile != "" {
		if err := report.WriteJSONFile(opts.ReportFile, rep); err != nil {
			return results, err
		}
		logger.Info("Run report written to %s", opts.ReportFile)
	}
	return results, nil
}

func applySendOverrides(cfg *config.Config, opts SendOptions) {
	sc := &cfg.Sender
	if opts.URI != "" {
		sc.URI = opts.URI
		if u, err := transport.ParseURI(opts.URI); err == nil {
			sc.URI = u.String()
		}
	}
	if len(opts.Subprotocols) > 0 {
		sc.Subprotocols = opts.Subprotocols
	}
	if opts.TimeoutSec != nil {
		sc.TimeoutMs = int(*opts.TimeoutSec * 1000)
	}
	if opts.ReplaceUID {
		sc.ReplaceUID = true
	}
	if opts.NoReconnect {
		off := false
		sc.Reconnect = &off
	}
	if opts.CSVFile != "" {
		sc.CSVFile = opts.CSVFile
	}
	if opts.JSONFile != "" {
		sc.JSONFile = opts.JSONFile
	}
}

func metricOf(r replay.Result) metrics.Metric {
	m := metrics.Metric{
		Timestamp: time.Now(),
		Input:     r.Input,
		Action:    r.Action,
		UID:       r.UID,
		Result:    r.Label,
		Category:  replay.Category(r.Label),
		Sent:      r.Sent,
		RTTMs:     float64(r.RTT.Microseconds()) / 1000,
	}
	if r.Err != nil {
		m.Error = r.Err.Error()
	}
	return m
}

func writeResults(results []metrics.Metric, csvPath, jsonPath string) error {
	w, err := metrics.NewWriter(csvPath, jsonPath)
	if err != nil {
		return err
	}
	for _, m := range results {
		if err := w.WriteMetric(m); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
