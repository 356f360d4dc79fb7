// Package config loads service configuration from file and environment
// via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Storage StorageConfig `mapstructure:"storage"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// EngineConfig holds wager engine settings.
type EngineConfig struct {
	StartingBalance float64 `mapstructure:"starting_balance"`
	MaxStake        float64 `mapstructure:"max_stake"`
	MaxOpenExposure float64 `mapstructure:"max_open_exposure"`
}

// StorageConfig holds persistence settings. Empty DatabaseURL selects
// the in-memory store; RedisURL adds the read-through cache layer.
type StorageConfig struct {
	DatabaseURL string        `mapstructure:"database_url"`
	RedisURL    string        `mapstructure:"redis_url"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// Load reads configuration from an optional file plus WAGER_ENGINE_*
// environment variables. A missing file is fine; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WAGER_ENGINE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("engine.starting_balance", 100.0)
	v.SetDefault("engine.max_stake", 0.0)         // 0 = unlimited
	v.SetDefault("engine.max_open_exposure", 0.0) // 0 = unlimited

	v.SetDefault("storage.database_url", "")
	v.SetDefault("storage.redis_url", "")
	v.SetDefault("storage.cache_ttl", "30s")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	if c.Engine.StartingBalance < 0 {
		return fmt.Errorf("engine.starting_balance must not be negative")
	}
	if c.Engine.MaxStake < 0 {
		return fmt.Errorf("engine.max_stake must not be negative")
	}
	if c.Engine.MaxOpenExposure < 0 {
		return fmt.Errorf("engine.max_open_exposure must not be negative")
	}
	if c.Storage.RedisURL != "" && c.Storage.DatabaseURL == "" {
		return fmt.Errorf("storage.redis_url requires storage.database_url")
	}
	if c.Storage.CacheTTL <= 0 {
		return fmt.Errorf("storage.cache_ttl must be positive")
	}
	return nil
}
