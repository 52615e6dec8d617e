package app

import (
	"fmt"
	"io"

	"github.com/tturner/ocppfuzz/internal/config"
)

// RunConfigPrintDefault prints the default configuration, or writes it to
// path when one is given.
func RunConfigPrintDefault(path string, out io.Writer) error {
	if path != "" {
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(stdoutOr(out), "wrote default config to %s\n", path)
		return nil
	}
	data, err := config.Marshal(config.CreateDefaultConfig())
	if err != nil {
		return err
	}
	_, err = stdoutOr(out).Write(data)
	return err
}

// RunConfigValidate loads and validates a config file.
func RunConfigValidate(path string, out io.Writer) error {
	if path == "" {
		path = config.DefaultConfigPath
	}
	if _, err := config.LoadConfig(path, true); err != nil {
		return err
	}
	fmt.Fprintf(stdoutOr(out), "%s: OK\n", path)
	return nil
}
