package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("test.db")

	assert.Equal(t, "test.db", config.Path)
	assert.Equal(t, 4, config.MaxOpenConns)
	assert.Equal(t, 2, config.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, config.ConnMaxLifetime)
	assert.Equal(t, 5*time.Second, config.BusyTimeout)
	assert.Equal(t, "WAL", config.JournalMode)
	assert.Equal(t, "NORMAL", config.Synchronous)
	assert.True(t, config.AutoMigrate)
}

func TestConfig_DSN(t *testing.T) {
	config := DefaultConfig("/data/fallguys.db")

	assert.Equal(t,
		"/data/fallguys.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_time_format=sqlite",
		config.dsn())
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open(DefaultConfig(":memory:"))
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Ping())
	assert.NotNil(t, db.Conn())
}

func TestOpen_MigratesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fallguys.db")

	db, err := Open(DefaultConfig(path))
	require.NoError(t, err)
	defer db.Close()

	var tables int
	err = db.Conn().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('shows', 'rounds')`).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 2, tables)
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)

	_, err = Open(&Config{})
	assert.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", t.TempDir())

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "fallguys.db", filepath.Base(path))
	assert.Equal(t, ".fallguys-companion", filepath.Base(filepath.Dir(path)))
}
