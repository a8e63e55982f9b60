package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Player.log", cfg.LogPath)
	assert.True(t, cfg.Follow)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.True(t, cfg.WatchRotation)
	assert.Empty(t, cfg.DataDir)
	assert.Empty(t, cfg.SQLitePath)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Empty(t, cfg.BroadcastAddr)
	assert.Empty(t, cfg.CardDBPath)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ARENABUDDY_LOG_PATH", "/var/log/arena/Player.log")
	t.Setenv("ARENABUDDY_FOLLOW", "false")
	t.Setenv("ARENABUDDY_POLL_INTERVAL", "250ms")
	t.Setenv("ARENABUDDY_DATA_DIR", "/var/lib/arenabuddy")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/var/log/arena/Player.log", cfg.LogPath)
	assert.False(t, cfg.Follow)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "/var/lib/arenabuddy", cfg.DataDir)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "log_path: /logs/Player.log\npoll_interval: 2s\nbroadcast_addr: 127.0.0.1:9000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/logs/Player.log", cfg.LogPath)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, "127.0.0.1:9000", cfg.BroadcastAddr)
	assert.True(t, cfg.Follow, "unset keys keep their defaults")
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_path: /from/file\n"), 0o644))
	t.Setenv("ARENABUDDY_LOG_PATH", "/from/env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.LogPath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("empty log path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`log_path: ""`+"\n"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
	t.Run("non-positive poll interval", func(t *testing.T) {
		t.Setenv("ARENABUDDY_POLL_INTERVAL", "0s")
		_, err := Load("")
		assert.Error(t, err)
	})
}
