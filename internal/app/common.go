package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tturner/ocppfuzz/internal/config"
	"github.com/tturner/ocppfuzz/internal/logging"
)

// loadConfig loads path, or the default config file when path is empty. An
// explicit path must exist; the default file is optional.
func loadConfig(path string) (*config.Config, string, error) {
	mustExist := path != ""
	if path == "" {
		path = config.DefaultConfigPath
	}
	cfg, err := config.LoadConfig(path, mustExist)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// newLogger builds the logger for a command. level, when set, overrides the
// configured level.
func newLogger(cfg config.LoggingConfig, level string) (*logging.Logger, error) {
	if level != "" {
		cfg.Level = level
	}
	logger, err := logging.NewLoggerWithOptions(cfg.LogLevel(), cfg.LogFile, cfg.Format, cfg.LogEveryN)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

func stdoutOr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

func stderrOr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
