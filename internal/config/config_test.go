package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tturner/ocppfuzz/internal/logging"
	"github.com/tturner/ocppfuzz/internal/seeds"
)

func TestCreateDefaultConfig(t *testing.T) {
	cfg := CreateDefaultConfig()

	if cfg.Generator.Dir != "corpus_out" || cfg.Generator.MinVariants != 1 || cfg.Generator.MaxVariants != 5 {
		t.Errorf("unexpected generator defaults: %+v", cfg.Generator)
	}
	if cfg.Generator.BaselineProbability != seeds.BaselineSaveProb {
		t.Errorf("baseline probability = %g", cfg.Generator.BaselineProbability)
	}
	if cfg.Sender.URI != "ws://127.0.0.1:9000/CP_REPLAY" {
		t.Errorf("sender uri = %q", cfg.Sender.URI)
	}
	if len(cfg.Sender.Subprotocols) != 1 || cfg.Sender.Subprotocols[0] != "ocpp1.6" {
		t.Errorf("subprotocols = %v", cfg.Sender.Subprotocols)
	}
	if cfg.Sender.TimeoutMs != 8000 || cfg.Sender.CSVFile != "replay_result.csv" {
		t.Errorf("unexpected sender defaults: %+v", cfg.Sender)
	}
	if !cfg.Sender.ReconnectEnabled() {
		t.Error("reconnect should default to on")
	}
	if cfg.Server.ListenIP != "0.0.0.0" || cfg.Server.Port != 9000 || cfg.Server.MaxMessageBytes != 2*1024*1024 {
		t.Errorf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Mutation != seeds.DefaultProbabilities() {
		t.Errorf("mutation = %+v", cfg.Mutation)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"probability out of range", func(c *Config) { c.Mutation.ActionSwap = 1.5 }, "mutation.action_swap"},
		{"empty dir", func(c *Config) { c.Generator.Dir = "" }, "generator.dir"},
		{"baseline probability", func(c *Config) { c.Generator.BaselineProbability = -1 }, "baseline_probability"},
		{"http uri", func(c *Config) { c.Sender.URI = "http://localhost:9000" }, "sender.uri"},
		{"negative timeout", func(c *Config) { c.Sender.TimeoutMs = -5 }, "timeout_ms"},
		{"no csv", func(c *Config) { c.Sender.CSVFile = "" }, "csv_file"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative delay", func(c *Config) { c.Server.Faults.DelayMs = -1 }, "delay"},
		{"negative every n", func(c *Config) { c.Server.Faults.CloseConnectionEveryN = -1 }, "every_n"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"level case", func(c *Config) { c.Logging.Level = "DEBUG" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := CreateDefaultConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateConfig() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("ValidateConfig() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocppfuzz.yaml")
	content := `
mutation:
  action_swap: 0
  header_corrupt: 1
generator:
  dir: out
  target: 25
  baseline: true
  baseline_probability: 0
  rng_seed: 42
sender:
  uri: ws://10.0.0.5:9000/CP_7
  reconnect: false
server:
  port: 9100
  faults:
    drop_response_every_n: 3
logging:
  level: verbose
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Mutation.ActionSwap != 0 || cfg.Mutation.HeaderCorrupt != 1 {
		t.Errorf("mutation overrides lost: %+v", cfg.Mutation)
	}
	if cfg.Mutation.DictJunk != seeds.DictJunkProb {
		t.Errorf("unset probability should keep its default, got %g", cfg.Mutation.DictJunk)
	}
	if cfg.Generator.Dir != "out" || cfg.Generator.Target != 25 || !cfg.Generator.Baseline {
		t.Errorf("generator = %+v", cfg.Generator)
	}
	if cfg.Generator.BaselineProbability != 0 {
		t.Errorf("explicit zero baseline probability overwritten: %g", cfg.Generator.BaselineProbability)
	}
	if cfg.Generator.MinVariants != 1 || cfg.Generator.MaxVariants != 5 {
		t.Errorf("variant bounds = %d..%d", cfg.Generator.MinVariants, cfg.Generator.MaxVariants)
	}
	if cfg.Generator.RNGSeed == nil || *cfg.Generator.RNGSeed != 42 {
		t.Errorf("rng seed = %v", cfg.Generator.RNGSeed)
	}
	if cfg.Sender.URI != "ws://10.0.0.5:9000/CP_7" || cfg.Sender.ReconnectEnabled() {
		t.Errorf("sender = %+v", cfg.Sender)
	}
	if cfg.Sender.TimeoutMs != 8000 {
		t.Errorf("timeout default = %d", cfg.Sender.TimeoutMs)
	}
	if cfg.Server.Port != 9100 || cfg.Server.Faults.DropResponseEveryN != 3 || cfg.Server.ListenIP != "0.0.0.0" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Logging.LogLevel() != logging.LogLevelVerbose || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig without mustExist: %v", err)
	}
	if cfg.Sender.URI == "" {
		t.Error("defaults not applied")
	}

	if _, err := LoadConfig(path, true); err == nil {
		t.Fatal("expected error for missing file")
	} else if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":        "generator: [",
		"bad probability": "mutation:\n  dict_mutate: 2\n",
		"bad level":       "logging:\n  level: chatty\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ocppfuzz.yaml")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path, true); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestWriteDefaultConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocppfuzz.yaml")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}
	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	def := CreateDefaultConfig()
	if cfg.Mutation != def.Mutation || cfg.Generator.Target != def.Generator.Target || cfg.Server != def.Server {
		t.Errorf("round trip changed config:\n got %+v\nwant %+v", cfg, def)
	}
}
