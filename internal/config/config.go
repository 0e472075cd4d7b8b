// Package config loads the engine's HCL configuration file.
//
//	log {
//	  level  = "debug"
//	  format = "json"
//	}
//
//	metrics {
//	  enabled   = true
//	  namespace = "graphite"
//	}
//
// Both blocks and every attribute are optional.
package config

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/prometheus/common/model"
)

// Defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultNamespace = "graphite"
)

// Config is the decoded configuration file.
type Config struct {
	Log     LogConfig
	Metrics MetricsConfig
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `hcl:"level,optional"`  // debug, info, warn or error
	Format string `hcl:"format,optional"` // text or json
}

// MetricsConfig controls the Prometheus allocator collector.
type MetricsConfig struct {
	Enabled   bool   `hcl:"enabled,optional"`
	Namespace string `hcl:"namespace,optional"`
}

type hclFile struct {
	Log     *LogConfig     `hcl:"log,block"`
	Metrics *MetricsConfig `hcl:"metrics,block"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Metrics: MetricsConfig{Namespace: DefaultNamespace},
	}
}

// LoadFile parses and validates the HCL file at path.
func LoadFile(path string) (*Config, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	return decode(path, file.Body)
}

// Parse is LoadFile for in-memory source.
func Parse(src []byte, filename string) (*Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, diags)
	}
	return decode(filename, file.Body)
}

func decode(filename string, body hcl.Body) (*Config, error) {
	var parsed hclFile
	if diags := gohcl.DecodeBody(body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", filename, diags)
	}

	cfg := Default()
	if parsed.Log != nil {
		if parsed.Log.Level != "" {
			cfg.Log.Level = parsed.Log.Level
		}
		if parsed.Log.Format != "" {
			cfg.Log.Format = parsed.Log.Format
		}
	}
	if parsed.Metrics != nil {
		cfg.Metrics.Enabled = parsed.Metrics.Enabled
		if parsed.Metrics.Namespace != "" {
			cfg.Metrics.Namespace = parsed.Metrics.Namespace
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", filename, err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be \"text\" or \"json\", got %q", c.Log.Format)
	}
	if !model.IsValidMetricName(model.LabelValue(c.Metrics.Namespace)) {
		return fmt.Errorf("metrics namespace %q is not a valid metric name prefix", c.Metrics.Namespace)
	}
	return nil
}

// SlogLevel returns the configured level. Call Validate first.
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.Log.Level)
	return level
}

// ParseLevel resolves debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
