package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port             string   `yaml:"port"`
	AllowOrigins     []string `yaml:"allow_origins"`
	MaxBodySizeBytes int64    `yaml:"max_body_size_bytes"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	// Type selects the store backend: "postgres" (database/sql) or "gorm"
	Type     string         `yaml:"type"`
	Postgres PostgresConfig `yaml:"postgres"`
	Pool     PoolConfig     `yaml:"pool"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// PoolConfig bounds the shared connection pool
type PoolConfig struct {
	MaxOpenConns    int `yaml:"max_open_conns"`
	MaxIdleConns    int `yaml:"max_idle_conns"`
	IdleTimeoutSecs int `yaml:"idle_timeout_seconds"`
}

// MonitorConfig contains database health monitor settings
type MonitorConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CronSpec string `yaml:"cron_spec"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             "3000",
			AllowOrigins:     []string{"*"},
			MaxBodySizeBytes: 10 << 20,
		},
		Database: DatabaseConfig{
			Type: "postgres",
			Postgres: PostgresConfig{
				SSLMode: "disable",
			},
			Pool: PoolConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				IdleTimeoutSecs: 30,
			},
		},
		Monitor: MonitorConfig{
			Enabled:  true,
			CronSpec: "*/5 * * * *",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetIdleTimeout returns the pool idle timeout as a duration
func (c *PoolConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSecs) * time.Second
}
