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
	config := DefaultConfig()

	assert.Equal(t, "Player.log", config.Log.FileName)
	assert.Equal(t, "500ms", config.Log.PollInterval)
	assert.True(t, config.Log.UseFsnotify)
	assert.True(t, config.Storage.Enabled)
	assert.Equal(t, 9010, config.Server.Port)
	assert.Equal(t, "console", config.App.LogFormat)
	assert.NoError(t, config.Validate())

	interval, err := config.GetLogPollInterval()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, interval)
}

func TestLoadFrom_MissingFile(t *testing.T) {
	config, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[log]
directory = "/games/FallGuys_client"
poll_interval = "1s"

[app]
debug_mode = true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	config, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "/games/FallGuys_client", config.Log.Directory)
	assert.Equal(t, "1s", config.Log.PollInterval)
	assert.Equal(t, "Player.log", config.Log.FileName)
	assert.True(t, config.App.DebugMode)
	assert.Equal(t, 9010, config.Server.Port)
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log\n"), 0o644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	config := DefaultConfig()
	config.Server.Port = 9100
	config.Storage.DBPath = "/tmp/fg.db"
	require.NoError(t, config.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}

func TestSave_UsesHomeDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	require.NoError(t, DefaultConfig().Save())

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
	assert.FileExists(t, filepath.Join(home, ".fallguys-companion", "config.toml"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad interval", func(c *Config) { c.Log.PollInterval = "soon" }},
		{"zero interval", func(c *Config) { c.Log.PollInterval = "0s" }},
		{"empty file name", func(c *Config) { c.Log.FileName = "" }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"log format", func(c *Config) { c.App.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			assert.Error(t, config.Validate())
		})
	}
}
