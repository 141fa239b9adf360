package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration file. Flags set on the command
// line take precedence over it.
type Config struct {
	DB            string `yaml:"db"`
	Format        string `yaml:"format"`
	DiffCacheSize *int   `yaml:"diff_cache_size"`
	LogLevel      string `yaml:"log_level"`
}

// LoadConfig reads a config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyConfig copies config values into o for every flag the user did not
// set explicitly.
func (o *RootOptions) applyConfig(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if cfg.DB != "" && !flags.Changed("db") {
		o.Database = cfg.DB
	}
	if cfg.Format != "" && !flags.Changed("format") {
		o.Format = cfg.Format
	}
	if cfg.DiffCacheSize != nil && !flags.Changed("diff-cache-size") {
		o.DiffCacheSize = *cfg.DiffCacheSize
	}
	if cfg.LogLevel != "" && !flags.Changed("log-level") {
		o.LogLevel = cfg.LogLevel
	}
}

// newLogger builds the text logger for a command run. --verbose forces
// debug.
func newLogger(w io.Writer, level string, verbose bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
