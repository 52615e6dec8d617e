package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tturner/ocppfuzz/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootHelpListsCommands(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, name := range []string{"generate", "send", "server", "seeds", "report", "config", "version"} {
		if !strings.Contains(out, name) {
			t.Fatalf("help missing %q: %s", name, out)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "ocppfuzz version dev\n") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestConfigPrintDefaultIsValidYAML(t *testing.T) {
	out, err := execute(t, "config", "print-default")
	if err != nil {
		t.Fatalf("print-default failed: %v", err)
	}
	var cfg config.Config
	if err := yaml.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("default config is not YAML: %v", err)
	}
	if cfg.Sender.URI != "ws://127.0.0.1:9000/CP_REPLAY" {
		t.Fatalf("unexpected sender.uri %q", cfg.Sender.URI)
	}
}

func TestGenerateCommand(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		files int
	}{
		{"defaults", []string{"--target", "7", "--seed", "3"}, 7},
		{"min max", []string{"--target", "5", "--min", "1", "--max", "1", "--seed", "42"}, 5},
		{"long variant names", []string{"--target", "4", "--min-variants", "2", "--max-variants", "2", "--seed", "1"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "corpus")
			args := append([]string{"generate", "--dir", dir, "--log-level", "silent"}, tt.args...)
			out, err := execute(t, args...)
			if err != nil {
				t.Fatalf("generate failed: %v", err)
			}
			if !strings.Contains(out, fmt.Sprintf("wrote %d files to %s", tt.files, dir)) {
				t.Fatalf("unexpected output: %q", out)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatalf("read corpus: %v", err)
			}
			if len(entries) != tt.files {
				t.Fatalf("expected %d files, got %d", tt.files, len(entries))
			}
		})
	}
}

func TestSendInputFlag(t *testing.T) {
	empty := t.TempDir()
	csvPath := filepath.Join(empty, "result.csv")
	tests := []struct {
		name string
		args []string
	}{
		{"flag", []string{"send", "--input", empty}},
		{"positional", []string{"send", empty}},
		{"flag wins over positional", []string{"send", "--input", empty, filepath.Join(empty, "missing")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--csv", csvPath, "--log-level", "silent")
			out, err := execute(t, args...)
			if err != nil {
				t.Fatalf("send failed: %v", err)
			}
			if out != "No input JSON found.\n" {
				t.Fatalf("unexpected output: %q", out)
			}
		})
	}
}

func TestServerModesCommand(t *testing.T) {
	out, err := execute(t, "server", "modes")
	if err != nil {
		t.Fatalf("modes failed: %v", err)
	}
	for _, mode := range []string{"baseline", "flaky", "hostile", "perf"} {
		if !strings.Contains(out, mode+":") {
			t.Fatalf("missing mode %q: %s", mode, out)
		}
	}
}

func TestReportRequiresArgument(t *testing.T) {
	if _, err := execute(t, "report"); err == nil {
		t.Fatal("expected error without a CSV path")
	}
}
