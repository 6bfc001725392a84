package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/omniverlay/pkg/data"
	"github.com/platinummonkey/omniverlay/pkg/observability"
	"github.com/platinummonkey/omniverlay/pkg/storage"
)

// FileName is the optional config file looked up in the data directory
const FileName = "config.yaml"

// Config holds all application configuration
type Config struct {
	// DataDir is the application data directory
	DataDir string

	// Storage configuration; Storage.Root is always DataDir
	Storage storage.Config

	// Documents configuration
	Documents DocumentsConfig

	// LockTimeout bounds how long a boundary operation waits for locks
	LockTimeout time.Duration

	// WatchEnabled turns on the document directory watcher
	WatchEnabled bool

	// Observability configuration
	Observability ObservabilityConfig
}

// DocumentsConfig names the profile and layout loaded at startup
type DocumentsConfig struct {
	DefaultProfile string
	DefaultLayout  string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool
}

// fileConfig is the YAML shape of config.yaml. Unset fields keep defaults.
type fileConfig struct {
	LogLevel       string `yaml:"log_level"`
	LockTimeout    string `yaml:"lock_timeout"`
	DefaultProfile string `yaml:"default_profile"`
	DefaultLayout  string `yaml:"default_layout"`
	Watch          *bool  `yaml:"watch"`
	Metrics        *bool  `yaml:"metrics"`
	Cache          struct {
		Enabled *bool  `yaml:"enabled"`
		Size    int    `yaml:"size"`
		TTL     string `yaml:"ttl"`
	} `yaml:"cache"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig(dataDir string) *Config {
	storageCfg := storage.DefaultConfig()
	storageCfg.Root = dataDir

	return &Config{
		DataDir: dataDir,
		Storage: storageCfg,
		Documents: DocumentsConfig{
			DefaultProfile: data.DefaultName,
			DefaultLayout:  data.DefaultName,
		},
		LockTimeout:  5 * time.Second,
		WatchEnabled: true,
		Observability: ObservabilityConfig{
			LogLevel:       observability.InfoLevel,
			MetricsEnabled: true,
		},
	}
}

// LoadConfig loads configuration from the config file and environment variables
func LoadConfig() (*Config, error) {
	return LoadConfigWithDataDir("")
}

// LoadConfigWithDataDir loads configuration like LoadConfig, using dataDir
// instead of OMNIVERLAY_DATA_DIR when it is not empty. Values are layered as
// defaults, then config.yaml in the data directory, then the environment.
func LoadConfigWithDataDir(dataDir string) (*Config, error) {
	if dataDir == "" {
		dataDir = getEnv("OMNIVERLAY_DATA_DIR", defaultDataDir())
	}

	cfg := DefaultConfig(dataDir)

	if err := cfg.loadFile(filepath.Join(dataDir, FileName)); err != nil {
		return nil, err
	}

	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// defaultDataDir returns ~/.omniverlay, or .omniverlay when there is no home
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".omniverlay"
	}
	return filepath.Join(home, ".omniverlay")
}

// loadFile applies config.yaml. A missing file is not an error.
func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.LogLevel != "" {
		c.Observability.LogLevel = observability.ParseLogLevel(fc.LogLevel)
	}
	if fc.LockTimeout != "" {
		d, err := time.ParseDuration(fc.LockTimeout)
		if err != nil {
			return fmt.Errorf("invalid lock_timeout in %s: %w", path, err)
		}
		c.LockTimeout = d
	}
	if fc.DefaultProfile != "" {
		c.Documents.DefaultProfile = fc.DefaultProfile
	}
	if fc.DefaultLayout != "" {
		c.Documents.DefaultLayout = fc.DefaultLayout
	}
	if fc.Watch != nil {
		c.WatchEnabled = *fc.Watch
	}
	if fc.Metrics != nil {
		c.Observability.MetricsEnabled = *fc.Metrics
	}
	if fc.Cache.Enabled != nil {
		c.Storage.CacheEnabled = *fc.Cache.Enabled
	}
	if fc.Cache.Size > 0 {
		c.Storage.CacheSize = fc.Cache.Size
	}
	if fc.Cache.TTL != "" {
		d, err := time.ParseDuration(fc.Cache.TTL)
		if err != nil {
			return fmt.Errorf("invalid cache.ttl in %s: %w", path, err)
		}
		c.Storage.CacheTTL = d
	}

	return nil
}

// loadEnv applies environment variable overrides
func (c *Config) loadEnv() {
	if level := getEnv("OMNIVERLAY_LOG_LEVEL", ""); level != "" {
		c.Observability.LogLevel = observability.ParseLogLevel(level)
	}
	c.Observability.MetricsEnabled = getEnvBool("OMNIVERLAY_METRICS_ENABLED", c.Observability.MetricsEnabled)

	c.LockTimeout = getEnvDuration("OMNIVERLAY_LOCK_TIMEOUT", c.LockTimeout)
	c.WatchEnabled = getEnvBool("OMNIVERLAY_WATCH_ENABLED", c.WatchEnabled)

	c.Documents.DefaultProfile = getEnv("OMNIVERLAY_DEFAULT_PROFILE", c.Documents.DefaultProfile)
	c.Documents.DefaultLayout = getEnv("OMNIVERLAY_DEFAULT_LAYOUT", c.Documents.DefaultLayout)

	// Cache config
	c.Storage.CacheEnabled = getEnvBool("OMNIVERLAY_CACHE_ENABLED", c.Storage.CacheEnabled)
	if size := getEnvInt("OMNIVERLAY_CACHE_SIZE", 0); size > 0 {
		c.Storage.CacheSize = size
	}
	if ttl := getEnvDuration("OMNIVERLAY_CACHE_TTL", 0); ttl > 0 {
		c.Storage.CacheTTL = ttl
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Storage.Root != c.DataDir {
		return fmt.Errorf("storage root %q must be the data directory %q", c.Storage.Root, c.DataDir)
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("lock timeout must be positive, got %s", c.LockTimeout)
	}
	if err := data.ValidateName(c.Documents.DefaultProfile); err != nil {
		return fmt.Errorf("default profile: %w", err)
	}
	if err := data.ValidateName(c.Documents.DefaultLayout); err != nil {
		return fmt.Errorf("default layout: %w", err)
	}
	if c.Storage.CacheEnabled {
		if c.Storage.CacheSize <= 0 {
			return fmt.Errorf("cache size must be positive when the cache is enabled")
		}
		if c.Storage.CacheTTL < 0 {
			return fmt.Errorf("cache TTL cannot be negative")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
