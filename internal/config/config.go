// Package config loads the tracker configuration from an optional config
// file and ARENABUDDY_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full configuration surface of the tracker binary. The
// ingestion core itself only sees LogPath/Follow/PollInterval/WatchRotation.
type Config struct {
	LogPath       string        `mapstructure:"log_path"`
	Follow        bool          `mapstructure:"follow"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	WatchRotation bool          `mapstructure:"watch_rotation"`

	// Sinks. Empty values disable the corresponding sink.
	DataDir     string `mapstructure:"data_dir"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`

	// BroadcastAddr enables the websocket event hub when set,
	// e.g. "127.0.0.1:9000".
	BroadcastAddr string `mapstructure:"broadcast_addr"`

	// CardDBPath points at a JSON card-attribute dump for the lookup
	// collaborator.
	CardDBPath string `mapstructure:"card_db_path"`
}

// Load reads configuration, lowest priority first: defaults, config file
// (when path is non-empty), environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("log_path", "Player.log")
	v.SetDefault("follow", true)
	v.SetDefault("poll_interval", time.Second)
	v.SetDefault("watch_rotation", true)
	v.SetDefault("data_dir", "")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("broadcast_addr", "")
	v.SetDefault("card_db_path", "")

	v.SetEnvPrefix("ARENABUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.LogPath == "" {
		return nil, fmt.Errorf("log_path must not be empty")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll_interval must be positive, got %s", cfg.PollInterval)
	}
	return &cfg, nil
}
