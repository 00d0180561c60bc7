// Package config loads gdlgraph settings from a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default values applied before the file is decoded.
const (
	DefaultConcurrency = 8
	DefaultLogLevel    = "info"
	DefaultMarker      = "libpartdata.xml"
	DefaultDebounceMS  = 250
)

// Config is the root configuration structure.
type Config struct {
	// Roots are the workspace directories searched for library parts.
	Roots []string `toml:"roots"`
	// Concurrency bounds the number of parts searched at once by an
	// incoming-call query.
	Concurrency int           `toml:"concurrency"`
	Log         LogConfig     `toml:"log"`
	Index       IndexConfig   `toml:"index"`
	Watch       WatchConfig   `toml:"watch"`
	Metrics     MetricsConfig `toml:"metrics"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	// File, when set, receives JSON log lines through a rotating writer in
	// addition to the console output.
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// IndexConfig holds workspace discovery settings.
type IndexConfig struct {
	Marker           string   `toml:"marker"`
	RespectGitignore bool     `toml:"respect_gitignore"`
	Exclude          []string `toml:"exclude"`
}

// WatchConfig holds file watcher settings.
type WatchConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

// MetricsConfig holds the Prometheus endpoint settings for watch mode.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Concurrency: DefaultConcurrency,
		Log:         LogConfig{Level: DefaultLogLevel, MaxSizeMB: 50, MaxBackups: 3},
		Index:       IndexConfig{Marker: DefaultMarker, RespectGitignore: true},
		Watch:       WatchConfig{DebounceMS: DefaultDebounceMS},
	}
}

// Load reads configuration from path and applies environment variable
// overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return nil, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
			}
			cfg.resolveRoots(filepath.Dir(path))
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveRoots makes relative roots relative to the config file directory.
func (c *Config) resolveRoots(base string) {
	for i, r := range c.Roots {
		if !filepath.IsAbs(r) {
			c.Roots[i] = filepath.Join(base, r)
		}
	}
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency=%d must be at least 1", c.Concurrency))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level=%q must be one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, fmt.Errorf("log.max_size_mb=%d must not be negative", c.Log.MaxSizeMB))
	}
	if c.Index.Marker == "" {
		errs = append(errs, errors.New("index.marker is required"))
	} else if strings.ContainsAny(c.Index.Marker, `/\`) {
		errs = append(errs, fmt.Errorf("index.marker=%q must be a file name, not a path", c.Index.Marker))
	}
	for _, pat := range c.Index.Exclude {
		if _, err := filepath.Match(pat, ""); err != nil {
			errs = append(errs, fmt.Errorf("index.exclude pattern %q: %v", pat, err))
		}
	}
	if c.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms=%d must not be negative", c.Watch.DebounceMS))
	}
	for i, r := range c.Roots {
		if strings.TrimSpace(r) == "" {
			errs = append(errs, fmt.Errorf("roots[%d] is empty", i))
		}
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"GDLGRAPH_LOG_LEVEL", func(v string) {
			if v != "" {
				cfg.Log.Level = v
			}
		}},
		{"GDLGRAPH_LOG_FILE", func(v string) {
			if v != "" {
				cfg.Log.File = v
			}
		}},
		{"GDLGRAPH_ROOTS", func(v string) {
			if v != "" {
				cfg.Roots = filepath.SplitList(v)
			}
		}},
	} {
		setter.apply(os.Getenv(setter.env))
	}
}
