// Package config loads iopls configuration with the usual precedence:
// defaults, then a config file, then IOPLS_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete iopls configuration. It can be loaded from
// .iopls.yaml in the workspace root with environment overrides.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`
	Watcher   WatcherConfig   `yaml:"watcher" mapstructure:"watcher"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// WorkspaceConfig defines which files are indexed.
type WorkspaceConfig struct {
	Extension string   `yaml:"extension" mapstructure:"extension"` // indexed file extension
	Ignore    []string `yaml:"ignore" mapstructure:"ignore"`       // glob patterns to skip
}

// WatcherConfig controls the filesystem watcher.
type WatcherConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	DebounceMS int  `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// LogConfig controls logging. Output never goes to stdout, which
// carries the LSP protocol.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
	File  string `yaml:"file" mapstructure:"file"`   // empty means stderr
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Extension: ".iop",
			Ignore: []string{
				".git/**",
				"build/**",
				"**/.objs/**",
			},
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMS: 500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Debounce returns the watcher debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watcher.DebounceMS) * time.Millisecond
}

// Validate rejects configurations the server cannot run with.
func Validate(cfg *Config) error {
	if !strings.HasPrefix(cfg.Workspace.Extension, ".") {
		return fmt.Errorf("workspace.extension must start with a dot, got %q", cfg.Workspace.Extension)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", cfg.Log.Level)
	}
	if cfg.Watcher.DebounceMS < 0 {
		return fmt.Errorf("watcher.debounce_ms must not be negative, got %d", cfg.Watcher.DebounceMS)
	}
	return nil
}
