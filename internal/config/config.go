package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "FLATSYNC"
	configName = "config"
	configType = "yaml"
	appName    = "flatsync"
)

// Config holds all application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds the homework server connection
type APIConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Token      string `mapstructure:"token"`       // x-auth-token from a login session
	RelationID string `mapstructure:"relation_id"` // Student relation id from the same session
}

// CacheConfig holds the on-disk cache location
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// SyncConfig holds offline sync tuning
type SyncConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	IdleDelay       time.Duration `mapstructure:"idle_delay"`
	WindowDays      int           `mapstructure:"window_days"`
	Schedule        string        `mapstructure:"schedule"` // Cron spec (with seconds) for watch mode
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://api.mathflat.com",
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Sync: SyncConfig{
			Concurrency:     5,
			DownloadTimeout: 30 * time.Second,
			IdleDelay:       3 * time.Second,
			WindowDays:      28,
			Schedule:        "0 */30 * * * *",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName, appName+".log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, appName+".log")
	}
}

// DefaultConfigDir returns the default config directory for the current OS
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName, "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, "cache")
	}
}

// newViper builds a viper instance with defaults and env overrides
func newViper() *viper.Viper {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.token", def.API.Token)
	v.SetDefault("api.relation_id", def.API.RelationID)
	v.SetDefault("cache.dir", def.Cache.Dir)
	v.SetDefault("sync.concurrency", def.Sync.Concurrency)
	v.SetDefault("sync.download_timeout", def.Sync.DownloadTimeout)
	v.SetDefault("sync.idle_delay", def.Sync.IdleDelay)
	v.SetDefault("sync.window_days", def.Sync.WindowDays)
	v.SetDefault("sync.schedule", def.Sync.Schedule)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.level", def.Logging.Level)

	// FLATSYNC_API_TOKEN overrides api.token, etc.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configuration from path (or the default locations when path is
// empty), a .env file in the working directory and the environment.
func Load(path string) (*Config, error) {
	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	return cfg, nil
}

// Save writes cfg as YAML to path, creating its directory. An empty path
// writes to the default config location.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = filepath.Join(DefaultConfigDir(), configName+"."+configType)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.token", cfg.API.Token)
	v.Set("api.relation_id", cfg.API.RelationID)
	v.Set("cache.dir", cfg.Cache.Dir)
	v.Set("sync.concurrency", cfg.Sync.Concurrency)
	v.Set("sync.download_timeout", cfg.Sync.DownloadTimeout.String())
	v.Set("sync.idle_delay", cfg.Sync.IdleDelay.String())
	v.Set("sync.window_days", cfg.Sync.WindowDays)
	v.Set("sync.schedule", cfg.Sync.Schedule)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// IsConfigured returns true if a token and relation id are set
func (c *Config) IsConfigured() bool {
	return c.API.Token != "" && c.API.RelationID != ""
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
