// Package config loads and saves the companion's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Log file configuration
	Log LogConfig `toml:"log"`

	// History database configuration
	Storage StorageConfig `toml:"storage"`

	// Websocket and metrics server configuration
	Server ServerConfig `toml:"server"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// LogConfig contains log file monitoring settings.
type LogConfig struct {
	Directory    string `toml:"directory"`     // Fall Guys log directory (empty = auto-detect)
	FileName     string `toml:"file_name"`     // Live log file name
	PollInterval string `toml:"poll_interval"` // Polling interval (e.g., "500ms")
	UseFsnotify  bool   `toml:"use_fsnotify"`  // Wake the tailer on file system events
}

// StorageConfig contains show history settings.
type StorageConfig struct {
	Enabled bool   `toml:"enabled"` // Persist completed shows
	DBPath  string `toml:"db_path"` // SQLite file (empty = ~/.fallguys-companion/fallguys.db)
}

// ServerConfig contains the daemon's HTTP settings.
type ServerConfig struct {
	Port          int  `toml:"port"`           // Websocket/status port
	EnableMetrics bool `toml:"enable_metrics"` // Serve /metrics
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool   `toml:"debug_mode"` // Enable debug logging
	LogFormat string `toml:"log_format"` // "console" or "json"
	TUI       bool   `toml:"tui"`        // Show the terminal round table
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			FileName:     "Player.log",
			PollInterval: "500ms",
			UseFsnotify:  true,
		},
		Storage: StorageConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Port:          9010,
			EnableMetrics: true,
		},
		App: AppConfig{
			LogFormat: "console",
		},
	}
}

// Path returns the default location of the configuration file.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".fallguys-companion", "config.toml"), nil
}

// Load loads the configuration from the default path.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration at path. Returns the default config if the
// file doesn't exist; keys missing from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	interval, err := time.ParseDuration(c.Log.PollInterval)
	if err != nil {
		return fmt.Errorf("invalid poll interval %q: %w", c.Log.PollInterval, err)
	}
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive: %s", c.Log.PollInterval)
	}

	if c.Log.FileName == "" {
		return fmt.Errorf("log file name cannot be empty")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.App.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q (want console or json)", c.App.LogFormat)
	}

	return nil
}

// GetLogPollInterval returns the log poll interval as a duration.
func (c *Config) GetLogPollInterval() (time.Duration, error) {
	return time.ParseDuration(c.Log.PollInterval)
}
