package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ".iop", cfg.Workspace.Extension)
	assert.True(t, cfg.Watcher.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, Validate(cfg))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Workspace.Extension = "iop"
	assert.Error(t, Validate(cfg), "extension must start with a dot")

	cfg = Default()
	cfg.Log.Level = "chatty"
	assert.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Watcher.DebounceMS = -1
	assert.Error(t, Validate(cfg))
}

func TestLoadWithoutConfigFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ".iop", cfg.Workspace.Extension)
	assert.True(t, cfg.Watcher.Enabled)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `workspace:
  extension: .iopx
  ignore:
    - generated/**
watcher:
  enabled: false
  debounce_ms: 100
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".iopls.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ".iopx", cfg.Workspace.Extension)
	assert.Equal(t, []string{"generated/**"}, cfg.Workspace.Ignore)
	assert.False(t, cfg.Watcher.Enabled)
	assert.Equal(t, 100*time.Millisecond, cfg.Debounce())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".iopls.yaml"),
		[]byte("log:\n  level: nope\n"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("IOPLS_LOG_LEVEL", "warn")
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildLogger(t *testing.T) {
	log, err := BuildLogger(LogConfig{Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, log)
	log.Sync()

	_, err = BuildLogger(LogConfig{Level: "nonsense"})
	assert.Error(t, err)
}

func TestBuildLoggerToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iopls.log")
	log, err := BuildLogger(LogConfig{Level: "info", File: path})
	require.NoError(t, err)
	log.Info("hello")
	log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
