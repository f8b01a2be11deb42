package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration for a workspace with the following priority,
// highest first: IOPLS_* environment variables, .iopls.yaml in the
// workspace root, built-in defaults. A missing config file is fine.
func Load(rootDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".iopls")
	v.SetConfigType("yaml")
	if rootDir != "" {
		v.AddConfigPath(rootDir)
	}
	return load(v, false)
}

// LoadFile reads configuration from an explicit file path. Unlike Load,
// the file must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v, true)
}

func load(v *viper.Viper, required bool) (*Config, error) {
	v.SetEnvPrefix("IOPLS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("workspace.extension")
	v.BindEnv("watcher.enabled")
	v.BindEnv("watcher.debounce_ms")
	v.BindEnv("log.level")
	v.BindEnv("log.file")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); required || !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()
	v.SetDefault("workspace.extension", defaults.Workspace.Extension)
	v.SetDefault("workspace.ignore", defaults.Workspace.Ignore)
	v.SetDefault("watcher.enabled", defaults.Watcher.Enabled)
	v.SetDefault("watcher.debounce_ms", defaults.Watcher.DebounceMS)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)
}
