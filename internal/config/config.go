package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/receiptkit/internal/logging"
	"github.com/danmuck/receiptkit/internal/receipt"
)

// Config is the resolved receiptctl configuration.
type Config struct {
	ReceiptPath     string
	Strict          bool
	SkipUnknown     bool
	MaxReceiptBytes int64
	OutputFormat    receipt.Format
	LogLevel        string
	Server          ServerConfig
}

type ServerConfig struct {
	Addr        string
	CorsOrigins []string
	Metrics     bool
}

// receiptkit.toml key mapping.
type fileConfig struct {
	ReceiptPath     string           `toml:"receipt_path"`
	Strict          bool             `toml:"strict"`
	SkipUnknown     bool             `toml:"skip_unknown"`
	MaxReceiptBytes int64            `toml:"max_receipt_bytes"`
	OutputFormat    string           `toml:"output_format"`
	LogLevel        string           `toml:"log_level"`
	Server          serverFileConfig `toml:"server"`
}

type serverFileConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	Metrics     bool     `toml:"metrics"`
}

func Default() Config {
	return Config{
		MaxReceiptBytes: receipt.DefaultMaxBytes,
		OutputFormat:    receipt.FormatText,
		LogLevel:        "info",
		Server: ServerConfig{
			Addr:    ":9300",
			Metrics: true,
		},
	}
}

// Load decodes path over Default. Keys missing from the file keep their
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load receiptkit config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load receiptkit config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("receipt_path") {
		cfg.ReceiptPath = strings.TrimSpace(raw.ReceiptPath)
	}
	if meta.IsDefined("strict") {
		cfg.Strict = raw.Strict
	}
	if meta.IsDefined("skip_unknown") {
		cfg.SkipUnknown = raw.SkipUnknown
	}
	if meta.IsDefined("max_receipt_bytes") {
		cfg.MaxReceiptBytes = raw.MaxReceiptBytes
	}
	if meta.IsDefined("output_format") {
		format, err := receipt.ParseFormat(raw.OutputFormat)
		if err != nil {
			return Config{}, fmt.Errorf("load receiptkit config: output_format: %w", err)
		}
		cfg.OutputFormat = format
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = trimAll(raw.Server.CorsOrigins)
	}
	if meta.IsDefined("server", "metrics") {
		cfg.Server.Metrics = raw.Server.Metrics
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load receiptkit config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.MaxReceiptBytes <= 0 {
		return fmt.Errorf("max_receipt_bytes must be positive, got %d", c.MaxReceiptBytes)
	}
	if _, err := receipt.ParseFormat(string(c.OutputFormat)); err != nil {
		return err
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok && strings.TrimSpace(c.LogLevel) != "" {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// ValidateServer checks the settings serve needs on top of Validate.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	for i, origin := range c.Server.CorsOrigins {
		if origin == "" {
			return fmt.Errorf("server.cors_origins[%d] is empty", i)
		}
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
