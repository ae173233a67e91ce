package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port" validate:"min=1,max=65535"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" validate:"gte=0"`
	RateBurst       int     `yaml:"rate_burst" validate:"min=1"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" validate:"gte=0"`
	Timezone        string  `yaml:"timezone"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string        `yaml:"driver" validate:"oneof=postgres mysql sqlite"`
	DSN                    string        `yaml:"dsn" validate:"required"`
	MaxOpenConns           int           `yaml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns           int           `yaml:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int           `yaml:"conn_max_lifetime_minutes" validate:"gte=0"`
	LogLevel               string        `yaml:"log_level" validate:"omitempty,oneof=silent error warn info"`
	CheckinTimeoutMs       int           `yaml:"checkin_timeout_ms" validate:"min=1"`
	CheckinTimeout         time.Duration `yaml:"-"`
	MaxRetries             int           `yaml:"max_retries" validate:"gte=0"`
}

// LoggingConfig controls the application logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	File   string `yaml:"file"`
}

// Default returns the configuration used for every key the file omits.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            5000,
			RateLimitPerSec: 10,
			RateBurst:       20,
			CacheTTLSeconds: 5,
			Timezone:        "Asia/Jakarta",
		},
		Database: DatabaseConfig{
			Driver:           "postgres",
			LogLevel:         "warn",
			CheckinTimeoutMs: 5000,
			MaxRetries:       3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration from the given path. Keys present in the
// file override Default, including explicit zeros: rate_limit_per_sec: 0
// turns rate limiting off, cache_ttl_seconds: 0 turns the read cache off
// and max_retries: 0 disables check-in retries.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in values derived from the loaded ones and empty
// strings that have no meaning of their own.
func (c *Config) ApplyDefaults() {
	if c.Server.Timezone == "" {
		log.Printf("server.timezone is empty; defaulting to Asia/Jakarta")
		c.Server.Timezone = "Asia/Jakarta"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	c.Database.CheckinTimeout = time.Duration(c.Database.CheckinTimeoutMs) * time.Millisecond
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *ServerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Warning: unknown timezone %q: %v. Falling back to UTC.", c.Timezone, err)
		return time.UTC
	}
	return loc
}
