// Package config carries the monitor's runtime configuration: defaults,
// optional JSON/YAML config files, .env bootstrap, and environment
// overrides, in that precedence order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"modelhub-monitor/internal/monitoring"
)

// Config is the application configuration.
type Config struct {
	Paths   PathsConfig   `json:"paths" yaml:"paths" mapstructure:"paths"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Monitor MonitorConfig `json:"monitor" yaml:"monitor" mapstructure:"monitor"`
	Storage StorageConfig `json:"storage" yaml:"storage" mapstructure:"storage"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	UI      UIConfig      `json:"ui" yaml:"ui" mapstructure:"ui"`
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// PathsConfig locates the monitor's working directories.
type PathsConfig struct {
	Models string `json:"models" yaml:"models" mapstructure:"models"`
	Cache  string `json:"cache" yaml:"cache" mapstructure:"cache"`
	Logs   string `json:"logs" yaml:"logs" mapstructure:"logs"`
	Data   string `json:"data" yaml:"data" mapstructure:"data"`
}

// CatalogConfig bounds the model registry.
type CatalogConfig struct {
	MaxModels    int  `json:"max_models" yaml:"max_models" mapstructure:"max_models"`
	AutoDownload bool `json:"auto_download" yaml:"auto_download" mapstructure:"auto_download"`
}

// MonitorConfig drives collection scheduling and alerting limits.
type MonitorConfig struct {
	IntervalSeconds int                   `json:"interval_seconds" yaml:"interval_seconds" mapstructure:"interval_seconds"`
	Thresholds      monitoring.Thresholds `json:"thresholds" yaml:"thresholds" mapstructure:"thresholds"`
}

// Interval returns the collection interval as a duration.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend       string `json:"backend" yaml:"backend" mapstructure:"backend"`
	MaxFileSizeMB int    `json:"max_file_size_mb" yaml:"max_file_size_mb" mapstructure:"max_file_size_mb"`
}

// ServerConfig configures the serve mode HTTP listener.
type ServerConfig struct {
	Host              string `json:"host" yaml:"host" mapstructure:"host"`
	Port              int    `json:"port" yaml:"port" mapstructure:"port"`
	ReadTimeoutSecs   int    `json:"read_timeout_seconds" yaml:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`
	WriteTimeoutSecs  int    `json:"write_timeout_seconds" yaml:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`
	APITimeoutSeconds int    `json:"api_timeout_seconds" yaml:"api_timeout_seconds" mapstructure:"api_timeout_seconds"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UIConfig styles the dashboard.
type UIConfig struct {
	Theme string `json:"theme" yaml:"theme" mapstructure:"theme"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Models: "./models",
			Cache:  "./cache",
			Logs:   "./logs",
			Data:   "./data",
		},
		Catalog: CatalogConfig{
			MaxModels:    50,
			AutoDownload: false,
		},
		Monitor: MonitorConfig{
			IntervalSeconds: 300,
			Thresholds:      monitoring.DefaultThresholds(),
		},
		Storage: StorageConfig{
			Backend:       "json",
			MaxFileSizeMB: 1000,
		},
		Server: ServerConfig{
			Host:              "localhost",
			Port:              8080,
			ReadTimeoutSecs:   30,
			WriteTimeoutSecs:  30,
			APITimeoutSeconds: 30,
		},
		UI: UIConfig{
			Theme: "dark",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional config file,
// and environment overrides. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading .env file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// mergeFile overlays settings from a JSON or YAML file, chosen by
// extension. Keys absent from the file keep their current values.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing json config: %w", err)
		}
	}
	return nil
}

// Save writes the configuration to a JSON or YAML file, chosen by
// extension.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// EnsureFile writes the current configuration to path when no file
// exists there yet.
func (c *Config) EnsureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config file: %w", err)
	}
	return c.Save(path)
}

// Apply merges a generic settings map into the configuration. Section
// keys follow the struct's mapstructure tags, so a partial update like
// {"monitor": {"interval_seconds": 60}} touches only that field.
func (c *Config) Apply(updates map[string]interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("building config decoder: %w", err)
	}
	if err := decoder.Decode(updates); err != nil {
		return fmt.Errorf("applying config updates: %w", err)
	}
	return c.Validate()
}

// Settings flattens the configuration into a section map for display.
func (c *Config) Settings() map[string]interface{} {
	out := map[string]interface{}{}
	if err := mapstructure.Decode(c, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}

// EnsureDirs creates the configured working directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.Models, c.Paths.Cache, c.Paths.Logs, c.Paths.Data} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("MODELHUB_MODELS_PATH", &cfg.Paths.Models)
	setString("MODELHUB_CACHE_PATH", &cfg.Paths.Cache)
	setString("MODELHUB_LOGS_PATH", &cfg.Paths.Logs)
	setString("MODELHUB_DATA_PATH", &cfg.Paths.Data)

	setInt("MODELHUB_MAX_MODELS", &cfg.Catalog.MaxModels)
	setBool("MODELHUB_AUTO_DOWNLOAD", &cfg.Catalog.AutoDownload)

	setInt("MODELHUB_MONITOR_INTERVAL_SECONDS", &cfg.Monitor.IntervalSeconds)
	setFloat("MODELHUB_MAX_MEMORY_MB", &cfg.Monitor.Thresholds.MaxMemoryMB)
	setFloat("MODELHUB_MAX_CPU_PERCENT", &cfg.Monitor.Thresholds.MaxCPUPercent)
	setFloat("MODELHUB_MAX_INFERENCE_TIME_MS", &cfg.Monitor.Thresholds.MaxInferenceTimeMS)
	setFloat("MODELHUB_MIN_THROUGHPUT", &cfg.Monitor.Thresholds.MinThroughputTokensPerSec)
	setFloat("MODELHUB_MAX_ERROR_RATE", &cfg.Monitor.Thresholds.MaxErrorRate)

	setString("MODELHUB_STORAGE_BACKEND", &cfg.Storage.Backend)
	setInt("MODELHUB_MAX_FILE_SIZE_MB", &cfg.Storage.MaxFileSizeMB)

	setString("MODELHUB_HOST", &cfg.Server.Host)
	setInt("MODELHUB_PORT", &cfg.Server.Port)
	setInt("MODELHUB_API_TIMEOUT_SECONDS", &cfg.Server.APITimeoutSeconds)

	setString("MODELHUB_UI_THEME", &cfg.UI.Theme)
	setString("MODELHUB_LOG_LEVEL", &cfg.Logging.Level)
}

var validBackends = map[string]bool{"json": true, "yaml": true, "sqlite": true}

var validThemes = map[string]bool{"dark": true, "light": true}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"models path": c.Paths.Models,
		"cache path":  c.Paths.Cache,
		"logs path":   c.Paths.Logs,
		"data path":   c.Paths.Data,
	} {
		if v == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}

	if c.Catalog.MaxModels <= 0 {
		return fmt.Errorf("max models must be positive: %d", c.Catalog.MaxModels)
	}
	if c.Monitor.IntervalSeconds <= 0 {
		return fmt.Errorf("monitoring interval must be positive: %d", c.Monitor.IntervalSeconds)
	}
	if c.Storage.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max file size must be positive: %d", c.Storage.MaxFileSizeMB)
	}
	if c.Server.APITimeoutSeconds <= 0 {
		return fmt.Errorf("api timeout must be positive: %d", c.Server.APITimeoutSeconds)
	}
	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}
	if !validThemes[c.UI.Theme] {
		return fmt.Errorf("unknown ui theme: %q", c.UI.Theme)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	return nil
}
