package config

import (
	"fmt"
	"time"

	"github.com/scanpipe/scanpipe/internal/logger"
	"github.com/spf13/viper"
)

// FileConfig represents the top-level TOML structure.
type FileConfig struct {
	Store    StoreConfig    `toml:"store" mapstructure:"store"`
	Uplink   UplinkConfig   `toml:"uplink" mapstructure:"uplink"`
	Pipeline PipelineConfig `toml:"pipeline" mapstructure:"pipeline"`
	Feedback FeedbackConfig `toml:"feedback" mapstructure:"feedback"`
	Server   *ServerConfig  `toml:"server" mapstructure:"server"`
	Metrics  *MetricsConfig `toml:"metrics" mapstructure:"metrics"`
	Audit    AuditConfig    `toml:"audit" mapstructure:"audit"`
	Log      logger.Config  `toml:"log" mapstructure:"log"`
}

type StoreConfig struct {
	// DSN selects the KV backing the history: sqlite path, sqlite://,
	// postgres:// or memory://.
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

type UplinkConfig struct {
	Endpoint      string        `toml:"endpoint" mapstructure:"endpoint"`
	Attempts      int           `toml:"attempts" mapstructure:"attempts"`
	RetryInterval time.Duration `toml:"retry_interval" mapstructure:"retry_interval"`
	Timeout       time.Duration `toml:"timeout" mapstructure:"timeout"`
}

type PipelineConfig struct {
	Cooldown time.Duration `toml:"cooldown" mapstructure:"cooldown"`
}

type FeedbackConfig struct {
	Type    string `toml:"type" mapstructure:"type"` // "none", "bell" or "command"
	Command string `toml:"command" mapstructure:"command"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

type AuditConfig struct {
	// DSNs lists audit sinks: sqlite paths, postgres:// or clickhouse://.
	DSNs []string `toml:"dsns" mapstructure:"dsns"`
}

// Load parses a TOML config file and applies defaults.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}
	fc.applyDefaults()
	if err := fc.validate(); err != nil {
		return nil, err
	}
	return &fc, nil
}

func (fc *FileConfig) applyDefaults() {
	if fc.Store.DSN == "" {
		fc.Store.DSN = "scanpipe.db"
	}
	if fc.Uplink.Attempts == 0 {
		fc.Uplink.Attempts = 3
	}
	if fc.Uplink.Timeout == 0 {
		fc.Uplink.Timeout = 10 * time.Second
	}
	if fc.Pipeline.Cooldown == 0 {
		fc.Pipeline.Cooldown = 2 * time.Second
	}
	if fc.Server != nil && fc.Server.Listen == "" {
		fc.Server.Listen = ":8080"
	}
	if fc.Server != nil && fc.Server.BasePath == "" {
		fc.Server.BasePath = "/api"
	}
}

func (fc *FileConfig) validate() error {
	if fc.Uplink.Attempts < 0 {
		return fmt.Errorf("uplink.attempts must not be negative, got %d", fc.Uplink.Attempts)
	}
	if fc.Pipeline.Cooldown < 0 {
		return fmt.Errorf("pipeline.cooldown must not be negative, got %s", fc.Pipeline.Cooldown)
	}
	switch fc.Feedback.Type {
	case "", "none", "bell":
	case "command":
		if fc.Feedback.Command == "" {
			return fmt.Errorf("feedback.command required for feedback type command")
		}
	default:
		return fmt.Errorf("unknown feedback type %q", fc.Feedback.Type)
	}
	return nil
}
