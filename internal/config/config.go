package config

// Configuration loading and validation for ocppfuzz

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tturner/ocppfuzz/internal/errors"
	"github.com/tturner/ocppfuzz/internal/logging"
	"github.com/tturner/ocppfuzz/internal/seeds"
)

// DefaultConfigPath is the config file looked up when --config is not given.
const DefaultConfigPath = "ocppfuzz.yaml"

// Config is the complete ocppfuzz configuration.
type Config struct {
	Mutation  seeds.Probabilities `yaml:"mutation"`
	Generator GeneratorConfig     `yaml:"generator"`
	Sender    SenderConfig        `yaml:"sender"`
	Server    ServerConfig        `yaml:"server"`
	Logging   LoggingConfig       `yaml:"logging"`
}

// GeneratorConfig controls corpus generation.
type GeneratorConfig struct {
	Dir                 string  `yaml:"dir"`
	Target              int     `yaml:"target"`
	MinVariants         int     `yaml:"min_variants"`
	MaxVariants         int     `yaml:"max_variants"`
	Baseline            bool    `yaml:"baseline"`
	BaselineProbability float64 `yaml:"baseline_probability"`
	RNGSeed             *int64  `yaml:"rng_seed,omitempty"`   // fixed seed for reproducible corpora
	SeedsFile           string  `yaml:"seeds_file,omitempty"` // JSONC seed file replacing the built-in catalog
	JSONLFile           string  `yaml:"jsonl_file,omitempty"` // also write the corpus as JSON lines
}

// SenderConfig controls corpus replay.
type SenderConfig struct {
	URI          string   `yaml:"uri"`
	Subprotocols []string `yaml:"subprotocols"`
	TimeoutMs    int      `yaml:"timeout_ms"`
	ReplaceUID   bool     `yaml:"replace_uid"`
	Reconnect    *bool    `yaml:"reconnect,omitempty"`
	CSVFile      string   `yaml:"csv_file"`
	JSONFile     string   `yaml:"json_file,omitempty"`
}

// ServerFaultConfig controls fault injection for the endpoint harness.
type ServerFaultConfig struct {
	DelayMs               int `yaml:"delay_ms,omitempty"`
	JitterMs              int `yaml:"jitter_ms,omitempty"`
	DropResponseEveryN    int `yaml:"drop_response_every_n,omitempty"`
	CloseConnectionEveryN int `yaml:"close_connection_every_n,omitempty"`
}

// ServerConfig controls the endpoint harness.
type ServerConfig struct {
	ListenIP            string            `yaml:"listen_ip"`
	Port                int               `yaml:"port"`
	RequiredSubprotocol string            `yaml:"required_subprotocol"`
	MaxMessageBytes     int64             `yaml:"max_message_bytes"`
	RNGSeed             int64             `yaml:"rng_seed,omitempty"`
	Faults              ServerFaultConfig `yaml:"faults,omitempty"`
}

// LoggingConfig controls log formatting and verbosity.
type LoggingConfig struct {
	Format    string `yaml:"format,omitempty"` // "text" or "json"
	Level     string `yaml:"level,omitempty"`  // "silent","error","info","verbose","debug"
	LogEveryN int    `yaml:"log_every_n,omitempty"`
	LogFile   string `yaml:"log_file,omitempty"`
}

// CreateDefaultConfig creates a default configuration.
func CreateDefaultConfig() *Config {
	cfg := &Config{
		Mutation: seeds.DefaultProbabilities(),
		Generator: GeneratorConfig{
			Dir:                 "corpus_out",
			Target:              100,
			MinVariants:         1,
			MaxVariants:         5,
			BaselineProbability: seeds.BaselineSaveProb,
		},
	}
	applyDefaults(cfg)
	return cfg
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// WriteDefaultConfig writes a default configuration to a file.
func WriteDefaultConfig(path string) error {
	data, err := Marshal(CreateDefaultConfig())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadConfig loads a configuration from a YAML file. A missing file yields
// the defaults unless mustExist is set. Keys absent from the file keep their
// defaults; empty strings are replaced by defaults after loading.
func LoadConfig(path string, mustExist bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return CreateDefaultConfig(), nil
		}
		if os.IsNotExist(err) {
			return nil, errors.WrapConfigError(fmt.Errorf("config file not found: %s", path), path)
		}
		return nil, errors.WrapConfigError(fmt.Errorf("read config file: %w", err), path)
	}

	cfg := CreateDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("parse YAML: %w", err), path)
	}
	applyDefaults(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("validate config: %w", err), path)
	}
	return cfg, nil
}

// ValidateConfig validates a configuration.
func ValidateConfig(cfg *Config) error {
	if err := cfg.Mutation.Validate(); err != nil {
		return fmt.Errorf("mutation.%w", err)
	}

	g := cfg.Generator
	if g.Dir == "" {
		return fmt.Errorf("generator.dir is required")
	}
	if g.BaselineProbability < 0 || g.BaselineProbability > 1 {
		return fmt.Errorf("generator.baseline_probability must be between 0 and 1")
	}

	s := cfg.Sender
	if s.URI == "" {
		return fmt.Errorf("sender.uri is required")
	}
	if !strings.HasPrefix(s.URI, "ws://") && !strings.HasPrefix(s.URI, "wss://") {
		return fmt.Errorf("sender.uri must start with ws:// or wss://, got %q", s.URI)
	}
	if s.TimeoutMs < 0 {
		return fmt.Errorf("sender.timeout_ms must be >= 0")
	}
	if s.CSVFile == "" {
		return fmt.Errorf("sender.csv_file is required")
	}

	srv := cfg.Server
	if srv.Port < 0 || srv.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535")
	}
	if srv.MaxMessageBytes < 0 {
		return fmt.Errorf("server.max_message_bytes must be >= 0")
	}
	f := srv.Faults
	if f.DelayMs < 0 || f.JitterMs < 0 {
		return fmt.Errorf("server.faults delay values must be >= 0")
	}
	if f.DropResponseEveryN < 0 || f.CloseConnectionEveryN < 0 {
		return fmt.Errorf("server.faults every_n values must be >= 0")
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "silent", "error", "info", "verbose", "debug":
	default:
		return fmt.Errorf("logging.level must be one of silent, error, info, verbose, debug; got %q", cfg.Logging.Level)
	}
	if cfg.Logging.LogEveryN < 0 {
		return fmt.Errorf("logging.log_every_n must be >= 0")
	}
	return nil
}

// ReconnectEnabled reports whether the sender redials after a close.
func (s SenderConfig) ReconnectEnabled() bool {
	return s.Reconnect == nil || *s.Reconnect
}

// LogLevel returns the configured level.
func (l LoggingConfig) LogLevel() logging.LogLevel {
	return logging.ParseLevel(strings.ToLower(l.Level))
}

func applyDefaults(cfg *Config) {
	if cfg.Generator.Dir == "" {
		cfg.Generator.Dir = "corpus_out"
	}
	applySenderDefaults(cfg)
	applyServerDefaults(cfg)
	applyLoggingDefaults(cfg)
}

func applySenderDefaults(cfg *Config) {
	if cfg.Sender.URI == "" {
		cfg.Sender.URI = "ws://127.0.0.1:9000/CP_REPLAY"
	}
	if len(cfg.Sender.Subprotocols) == 0 {
		cfg.Sender.Subprotocols = []string{"ocpp1.6"}
	}
	if cfg.Sender.TimeoutMs == 0 {
		cfg.Sender.TimeoutMs = 8000
	}
	if cfg.Sender.CSVFile == "" {
		cfg.Sender.CSVFile = "replay_result.csv"
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.ListenIP == "" {
		cfg.Server.ListenIP = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9000
	}
	if cfg.Server.RequiredSubprotocol == "" {
		cfg.Server.RequiredSubprotocol = "ocpp1.6"
	}
	if cfg.Server.MaxMessageBytes == 0 {
		cfg.Server.MaxMessageBytes = 2 << 20
	}
}

func applyLoggingDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.LogEveryN == 0 {
		cfg.Logging.LogEveryN = 1
	}
}
