// Package config loads simulator settings from an optional YAML file,
// DIRCACHE_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// EnvPrefix prefixes environment overrides, e.g. DIRCACHE_CAPACITY or
// DIRCACHE_METRICS_ADDR.
const EnvPrefix = "DIRCACHE"

// Defaults.
const (
	DefaultCapacity      = 10000
	DefaultRoot          = "0"
	DefaultProgressEvery = 1000000
	DefaultOutput        = "text"
	DefaultNamespace     = "dircache"
)

// Config holds one simulation run's settings.
type Config struct {
	Capacity      int     `mapstructure:"capacity"`
	Root          string  `mapstructure:"root"`
	Trace         string  `mapstructure:"trace"`
	Lenient       bool    `mapstructure:"lenient"`
	ProgressEvery int64   `mapstructure:"progress_every"`
	Output        string  `mapstructure:"output"`
	Log           Log     `mapstructure:"log"`
	Metrics       Metrics `mapstructure:"metrics"`
}

// Log configures the process logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Metrics configures the Prometheus endpoint. An empty Addr disables it.
type Metrics struct {
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"capacity":       "capacity",
	"root":           "root",
	"trace":          "trace",
	"lenient":        "lenient",
	"progress-every": "progress_every",
	"output":         "output",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"metrics-addr":   "metrics.addr",
}

// RegisterFlags declares the flags understood by Load on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("capacity", DefaultCapacity, "cache capacity (entries)")
	fs.String("root", DefaultRoot, "synthetic root identifier for top-level components")
	fs.String("trace", "", "trace file ('-' for stdin)")
	fs.Bool("lenient", false, "skip malformed trace lines instead of failing")
	fs.Int64("progress-every", DefaultProgressEvery, "log progress every N records (0 disables)")
	fs.String("output", DefaultOutput, "report format: text | json | yaml")
	fs.String("log-level", "info", "log level: trace | debug | info | warn | error")
	fs.String("log-format", "console", "log format: console | json")
	fs.String("metrics-addr", "", "serve Prometheus metrics at addr (e.g. :9090); empty = disabled")
}

// Load resolves the configuration. file may be empty; fs may be nil.
func Load(file string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file at %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	normalize(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capacity", DefaultCapacity)
	v.SetDefault("root", DefaultRoot)
	v.SetDefault("trace", "")
	v.SetDefault("lenient", false)
	v.SetDefault("progress_every", DefaultProgressEvery)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.namespace", DefaultNamespace)
}

func normalize(cfg *Config) {
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if cfg.Root == "" {
		cfg.Root = DefaultRoot
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultNamespace
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be > 0, got %d", ErrInvalid, c.Capacity)
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("%w: progress_every must be >= 0, got %d", ErrInvalid, c.ProgressEvery)
	}
	switch c.Output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: unknown output format %q (use text, json or yaml)", ErrInvalid, c.Output)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q (use console or json)", ErrInvalid, c.Log.Format)
	}
	return nil
}
