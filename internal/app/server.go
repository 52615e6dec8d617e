package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/tturner/ocppfuzz/internal/capture"
	"github.com/tturner/ocppfuzz/internal/config"
	ocppErrors "github.com/tturner/ocppfuzz/internal/errors"
	"github.com/tturner/ocppfuzz/internal/progress"
	"github.com/tturner/ocppfuzz/internal/server"
)

// ServerOptions are the server command inputs.
type ServerOptions struct {
	ConfigPath          string
	ListenIP            string
	Port                *int
	Mode                string
	DelayMs             *int
	JitterMs            *int
	DropEveryN          *int
	CloseEveryN         *int
	RequiredSubprotocol string
	PCAPFile            string
	CaptureInterface    string
	LogLevel            string
	Stats               bool
	Out                 io.Writer

	// OnStart is called with the listen address once the server accepts
	// connections.
	OnStart func(addr string)
}

func RunServer(opts ServerOptions) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()
	return RunServerContext(ctx, opts)
}

// RunServerContext runs the endpoint harness until ctx is done.
func RunServerContext(ctx context.Context, opts ServerOptions) error {
	out := stdoutOr(opts.Out)

	cfg, cfgPath, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Mode != "" {
		if err := ApplyServerMode(cfg, opts.Mode); err != nil {
			return err
		}
	}
	applyServerOverrides(cfg, opts)
	if err := config.ValidateConfig(cfg); err != nil {
		return ocppErrors.WrapConfigError(err, cfgPath)
	}
	sc := cfg.Server

	logger, err := newLogger(cfg.Logging, opts.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Close()

	if opts.PCAPFile != "" {
		capt, err := capture.Start(capture.Options{
			Interface:  opts.CaptureInterface,
			Host:       sc.ListenIP,
			Port:       sc.Port,
			OutputFile: opts.PCAPFile,
		}, logger)
		if err != nil {
			return fmt.Errorf("start packet capture: %w", err)
		}
		fmt.Fprintf(out, "Starting packet capture on %s: %s\n", capt.Interface(), opts.PCAPFile)
		defer func() {
			if err := capt.Stop(); err != nil {
				logger.Error("Stop packet capture: %v", err)
			}
			absPath, _ := filepath.Abs(opts.PCAPFile)
			fmt.Fprintf(out, "Packets captured: %d\n", capt.Stats().Packets)
			fmt.Fprintf(out, "PCAP written to: %s\n", absPath)
		}()
	}

	fmt.Fprintf(out, "ocppfuzz server starting...\n")
	err = server.Run(ctx, &sc, logger, func(srv *server.Server) {
		addr := srv.Addr().String()
		fmt.Fprintf(out, "Listening on ws://%s (subprotocol %s)\n", addr, sc.RequiredSubprotocol)
		if opts.Stats {
			go reportStats(ctx, srv, progress.NewCounter(out, "Frames", "frames", 0))
		}
		if opts.OnStart != nil {
			opts.OnStart(addr)
		}
	})
	if err != nil {
		return fmt.Errorf("run server: %w", err)
	}
	fmt.Fprintf(out, "Server stopped\n")
	return nil
}

func reportStats(ctx context.Context, srv *server.Server, counter *progress.Counter) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := srv.Stats()
			counter.Update(st.Frames, fmt.Sprintf("%d active, %d results, %d call errors, %d dropped, %d closed",
				st.Active, st.Results, st.CallErrors, st.Dropped, st.Closed))
		}
	}
}

// ApplyServerMode applies a named fault preset:
//
//	baseline  no faults
//	flaky     small latency, occasional dropped responses
//	hostile   latency, dropped responses and abrupt closes
//	perf      no faults, errors-only logging
func ApplyServerMode(cfg *config.Config, mode string) error {
	f := &cfg.Server.Faults
	switch mode {
	case "baseline":
		*f = config.ServerFaultConfig{}
		cfg.Logging.Level = "info"
		cfg.Logging.LogEveryN = 1
	case "flaky":
		*f = config.ServerFaultConfig{DelayMs: 20, JitterMs: 30, DropResponseEveryN: 10}
		cfg.Logging.Level = "info"
		cfg.Logging.LogEveryN = 1
	case "hostile":
		*f = config.ServerFaultConfig{DelayMs: 50, JitterMs: 100, DropResponseEveryN: 5, CloseConnectionEveryN: 25}
		cfg.Logging.Level = "verbose"
		cfg.Logging.LogEveryN = 1
	case "perf":
		*f = config.ServerFaultConfig{}
		cfg.Logging.Level = "error"
		cfg.Logging.LogEveryN = 1000
	default:
		return fmt.Errorf("unknown server mode %q (want baseline, flaky, hostile or perf)", mode)
	}
	return nil
}

func applyServerOverrides(cfg *config.Config, opts ServerOptions) {
	sc := &cfg.Server
	if opts.ListenIP != "" {
		sc.ListenIP = opts.ListenIP
	}
	if opts.Port != nil {
		sc.Port = *opts.Port
	}
	if opts.RequiredSubprotocol != "" {
		sc.RequiredSubprotocol = opts.RequiredSubprotocol
	}
	if opts.DelayMs != nil {
		sc.Faults.DelayMs = *opts.DelayMs
	}
	if opts.JitterMs != nil {
		sc.Faults.JitterMs = *opts.JitterMs
	}
	if opts.DropEveryN != nil {
		sc.Faults.DropResponseEveryN = *opts.DropEveryN
	}
	if opts.CloseEveryN != nil {
		sc.Faults.CloseConnectionEveryN = *opts.CloseEveryN
	}
}
