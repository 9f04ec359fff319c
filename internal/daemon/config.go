package daemon

import (
	"os"
	"strings"
	"time"
)

// Config holds configuration for the daemon service.
type Config struct {
	// WebSocket/status server port. 0 picks a free port.
	Port int

	// Fall Guys log directory (auto-detect if empty)
	LogDirectory string

	// Live log file name
	LogFileName string

	// Log poll interval
	PollInterval time.Duration

	// Enable file system events (fsnotify) for log watching
	UseFSNotify bool

	// Persist completed shows
	StorageEnabled bool

	// Database path (defaults to ~/.fallguys-companion/fallguys.db)
	DBPath string

	// Serve Prometheus metrics on /metrics
	EnableMetrics bool

	// Log event payloads as well as event types
	VerboseEvents bool

	// Broadcast rate for watcher:error events, per second.
	// Default: 1
	ErrorRate float64

	// Burst of watcher:error events broadcast before rate limiting applies.
	// Default: 5
	ErrorBurst int

	// CORS configuration for WebSocket server
	CORSConfig CORSConfig
}

// CORSConfig holds CORS settings for the WebSocket server.
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS.
	// Use "*" to explicitly allow all origins.
	AllowedOrigins []string

	// AllowAllOrigins allows all origins regardless of AllowedOrigins list.
	AllowAllOrigins bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:           9010,
		LogFileName:    "Player.log",
		PollInterval:   500 * time.Millisecond,
		UseFSNotify:    true,
		StorageEnabled: true,
		EnableMetrics:  true,
		ErrorRate:      1,
		ErrorBurst:     5,
		CORSConfig:     DefaultCORSConfig(),
	}
}

// DefaultCORSConfig returns a CORS configuration that accepts any origin.
// The server only listens for local overlays, so this is the default.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowAllOrigins: true,
	}
}

// CORSConfigFromEnv creates a CORS configuration from environment variables.
// Environment variables:
//   - FALLGUYS_CORS_ALLOW_ALL: Set to "true" to allow all origins (default: true)
//   - FALLGUYS_CORS_ORIGINS: Comma-separated list of allowed origins
//
// If FALLGUYS_CORS_ORIGINS is set, FALLGUYS_CORS_ALLOW_ALL defaults to false.
func CORSConfigFromEnv() CORSConfig {
	config := DefaultCORSConfig()

	if origins := os.Getenv("FALLGUYS_CORS_ORIGINS"); origins != "" {
		originList := strings.Split(origins, ",")
		for i, origin := range originList {
			originList[i] = strings.TrimSpace(origin)
		}
		config.AllowedOrigins = originList
		config.AllowAllOrigins = false
	}

	if allowAll := os.Getenv("FALLGUYS_CORS_ALLOW_ALL"); allowAll != "" {
		config.AllowAllOrigins = strings.EqualFold(allowAll, "true")
	}

	return config
}
