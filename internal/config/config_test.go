package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Path defaults
	assert.Equal(t, "./models", cfg.Paths.Models)
	assert.Equal(t, "./cache", cfg.Paths.Cache)
	assert.Equal(t, "./logs", cfg.Paths.Logs)
	assert.Equal(t, "./data", cfg.Paths.Data)

	// Catalog defaults
	assert.Equal(t, 50, cfg.Catalog.MaxModels)
	assert.False(t, cfg.Catalog.AutoDownload)

	// Monitor defaults
	assert.Equal(t, 300, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.Interval())
	assert.Equal(t, 2048.0, cfg.Monitor.Thresholds.MaxMemoryMB)
	assert.Equal(t, 80.0, cfg.Monitor.Thresholds.MaxCPUPercent)
	assert.Equal(t, 1000.0, cfg.Monitor.Thresholds.MaxInferenceTimeMS)
	assert.Equal(t, 50.0, cfg.Monitor.Thresholds.MinThroughputTokensPerSec)
	assert.Equal(t, 10.0, cfg.Monitor.Thresholds.MaxErrorRate)

	// Storage defaults
	assert.Equal(t, "json", cfg.Storage.Backend)
	assert.Equal(t, 1000, cfg.Storage.MaxFileSizeMB)

	// Server defaults
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.Equal(t, 30, cfg.Server.APITimeoutSeconds)

	// UI and logging defaults
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "empty models path",
			mutate:  func(c *Config) { c.Paths.Models = "" },
			wantErr: true,
			errMsg:  "models path cannot be empty",
		},
		{
			name:    "empty cache path",
			mutate:  func(c *Config) { c.Paths.Cache = "" },
			wantErr: true,
			errMsg:  "cache path cannot be empty",
		},
		{
			name:    "zero max models",
			mutate:  func(c *Config) { c.Catalog.MaxModels = 0 },
			wantErr: true,
			errMsg:  "max models must be positive",
		},
		{
			name:    "negative monitoring interval",
			mutate:  func(c *Config) { c.Monitor.IntervalSeconds = -1 },
			wantErr: true,
			errMsg:  "monitoring interval must be positive",
		},
		{
			name:    "zero max file size",
			mutate:  func(c *Config) { c.Storage.MaxFileSizeMB = 0 },
			wantErr: true,
			errMsg:  "max file size must be positive",
		},
		{
			name:    "zero api timeout",
			mutate:  func(c *Config) { c.Server.APITimeoutSeconds = 0 },
			wantErr: true,
			errMsg:  "api timeout must be positive",
		},
		{
			name:    "unknown storage backend",
			mutate:  func(c *Config) { c.Storage.Backend = "csv" },
			wantErr: true,
			errMsg:  "unknown storage backend",
		},
		{
			name:    "sqlite backend accepted",
			mutate:  func(c *Config) { c.Storage.Backend = "sqlite" },
			wantErr: false,
		},
		{
			name:    "unknown ui theme",
			mutate:  func(c *Config) { c.UI.Theme = "solarized" },
			wantErr: true,
			errMsg:  "unknown ui theme",
		},
		{
			name:    "light theme accepted",
			mutate:  func(c *Config) { c.UI.Theme = "light" },
			wantErr: false,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
			errMsg:  "invalid server port",
		},
		{
			name:    "empty host",
			mutate:  func(c *Config) { c.Server.Host = "" },
			wantErr: true,
			errMsg:  "server host cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MODELHUB_MODELS_PATH", "/srv/models")
	t.Setenv("MODELHUB_MAX_MODELS", "10")
	t.Setenv("MODELHUB_AUTO_DOWNLOAD", "true")
	t.Setenv("MODELHUB_MONITOR_INTERVAL_SECONDS", "60")
	t.Setenv("MODELHUB_MAX_MEMORY_MB", "4096")
	t.Setenv("MODELHUB_STORAGE_BACKEND", "yaml")
	t.Setenv("MODELHUB_PORT", "9090")
	t.Setenv("MODELHUB_UI_THEME", "light")
	t.Setenv("MODELHUB_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/srv/models", cfg.Paths.Models)
	assert.Equal(t, 10, cfg.Catalog.MaxModels)
	assert.True(t, cfg.Catalog.AutoDownload)
	assert.Equal(t, 60, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, 4096.0, cfg.Monitor.Thresholds.MaxMemoryMB)
	assert.Equal(t, "yaml", cfg.Storage.Backend)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidEnvValuesKeepDefaults(t *testing.T) {
	t.Setenv("MODELHUB_MAX_MODELS", "many")
	t.Setenv("MODELHUB_AUTO_DOWNLOAD", "definitely")
	t.Setenv("MODELHUB_MAX_MEMORY_MB", "lots")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Catalog.MaxModels)
	assert.False(t, cfg.Catalog.AutoDownload)
	assert.Equal(t, 2048.0, cfg.Monitor.Thresholds.MaxMemoryMB)
}

func TestLoad_JSONFileMergesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"catalog": {"max_models": 5},
		"monitor": {"interval_seconds": 30, "thresholds": {"max_memory_mb": 512}},
		"ui": {"theme": "light"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	// File values win.
	assert.Equal(t, 5, cfg.Catalog.MaxModels)
	assert.Equal(t, 30, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, 512.0, cfg.Monitor.Thresholds.MaxMemoryMB)
	assert.Equal(t, "light", cfg.UI.Theme)

	// Untouched keys keep defaults.
	assert.Equal(t, "./models", cfg.Paths.Models)
	assert.Equal(t, "json", cfg.Storage.Backend)
	assert.Equal(t, 80.0, cfg.Monitor.Thresholds.MaxCPUPercent)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "storage:\n  backend: sqlite\nserver:\n  port: 9000\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_InvalidFileRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"catalog": {"max_models": -3}}`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, ext := range []string{"json", "yaml"} {
		path := filepath.Join(dir, "config."+ext)

		src := DefaultConfig()
		src.Catalog.MaxModels = 7
		src.UI.Theme = "light"
		require.NoError(t, src.Save(path))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Catalog.MaxModels, ext)
		assert.Equal(t, "light", cfg.UI.Theme, ext)
	}
}

func TestConfig_EnsureFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := DefaultConfig()
	require.NoError(t, cfg.EnsureFile(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	// A second call must not clobber an existing file.
	require.NoError(t, os.WriteFile(path, []byte(`{"ui": {"theme": "light"}}`), 0o600))
	require.NoError(t, cfg.EnsureFile(path))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "light", reloaded.UI.Theme)
}

func TestConfig_Apply(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.Apply(map[string]interface{}{
		"monitor": map[string]interface{}{"interval_seconds": 45},
		"ui":      map[string]interface{}{"theme": "light"},
	})
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, 50, cfg.Catalog.MaxModels)
}

func TestConfig_ApplyWeaklyTyped(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.Apply(map[string]interface{}{
		"catalog": map[string]interface{}{"max_models": "25", "auto_download": "true"},
	})
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Catalog.MaxModels)
	assert.True(t, cfg.Catalog.AutoDownload)
}

func TestConfig_ApplyRejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.Apply(map[string]interface{}{
		"ui": map[string]interface{}{"theme": "neon"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ui theme")
}

func TestConfig_Settings(t *testing.T) {
	cfg := DefaultConfig()
	settings := cfg.Settings()

	require.Contains(t, settings, "paths")
	require.Contains(t, settings, "monitor")
	paths, ok := settings["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "./models", paths["models"])
}

func TestConfig_EnsureDirs(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Paths.Models = filepath.Join(dir, "models")
	cfg.Paths.Cache = filepath.Join(dir, "cache")
	cfg.Paths.Logs = filepath.Join(dir, "logs")
	cfg.Paths.Data = filepath.Join(dir, "data")

	require.NoError(t, cfg.EnsureDirs())
	for _, p := range []string{cfg.Paths.Models, cfg.Paths.Cache, cfg.Paths.Logs, cfg.Paths.Data} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
