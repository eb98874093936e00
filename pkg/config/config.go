// Package config loads server and client settings from an optional YAML
// file, environment variables and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Server holds the settings for the cardroom server process.
type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	DBPath     string `mapstructure:"db_path"`
	LogFile    string `mapstructure:"log_file"`
	DebugLevel string `mapstructure:"debug_level"`

	// GracePeriod is how long a disconnected seat is held before it is
	// converted into a leave.
	GracePeriod time.Duration `mapstructure:"grace_period"`

	// StartingCredits is the balance granted to a player on first sight.
	StartingCredits int64 `mapstructure:"starting_credits"`

	SmallBlind int64 `mapstructure:"small_blind"`
	BigBlind   int64 `mapstructure:"big_blind"`
}

// Client holds the settings for the resilient client connection.
type Client struct {
	ServerAddr string `mapstructure:"server_addr"`

	ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	QueueCapacity     int           `mapstructure:"queue_capacity"`
}

// Config is the full settings tree.
type Config struct {
	Server Server `mapstructure:"server"`
	Client Client `mapstructure:"client"`
}

// Addr returns the server's listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7777)
	v.SetDefault("server.db_path", "cardroom.db")
	v.SetDefault("server.log_file", "")
	v.SetDefault("server.debug_level", "info")
	v.SetDefault("server.grace_period", 30*time.Second)
	v.SetDefault("server.starting_credits", int64(1000))
	v.SetDefault("server.small_blind", int64(10))
	v.SetDefault("server.big_blind", int64(20))

	v.SetDefault("client.server_addr", "ws://127.0.0.1:7777/ws")
	v.SetDefault("client.reconnect_attempts", 5)
	v.SetDefault("client.reconnect_delay", 2*time.Second)
	v.SetDefault("client.queue_capacity", 64)
}

// Load reads the config file at path if it exists, applies CARDROOM_*
// environment overrides and fills defaults. An empty path loads defaults
// and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CARDROOM")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Server.BigBlind <= cfg.Server.SmallBlind {
		return nil, fmt.Errorf("big blind %d must exceed small blind %d",
			cfg.Server.BigBlind, cfg.Server.SmallBlind)
	}
	if cfg.Client.QueueCapacity <= 0 {
		return nil, fmt.Errorf("queue capacity must be positive, got %d",
			cfg.Client.QueueCapacity)
	}
	return &cfg, nil
}
