// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"SPANSCORE_HOST" yaml:"host"`
	Port int    `envconfig:"SPANSCORE_PORT" yaml:"port"`

	// Evaluation configuration
	Eval EvalConfig `yaml:"eval"`

	// Event bus configuration
	Bus BusConfig `yaml:"bus"`

	// Run history configuration
	History HistoryConfig `yaml:"history"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`
}

// EvalConfig holds evaluation settings.
type EvalConfig struct {
	IgnoreLabel        bool    `envconfig:"SPANSCORE_IGNORE_LABEL" yaml:"ignore_label"`
	PartialMatchWeight float64 `envconfig:"SPANSCORE_PARTIAL_MATCH_WEIGHT" yaml:"partial_match_weight"`
	Workers            int     `envconfig:"SPANSCORE_EVAL_WORKERS" yaml:"workers"`
	SkipMissing        bool    `envconfig:"SPANSCORE_SKIP_MISSING" yaml:"skip_missing"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"SPANSCORE_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"SPANSCORE_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"SPANSCORE_KAFKA_GROUP" yaml:"kafka_group"`
}

// HistoryConfig holds run history storage settings.
type HistoryConfig struct {
	Type     string `envconfig:"SPANSCORE_HISTORY_TYPE" yaml:"type"`
	RedisURL string `envconfig:"SPANSCORE_REDIS_URL" yaml:"redis_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"SPANSCORE_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"SPANSCORE_LOG_FORMAT" yaml:"format"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	RateLimit int `envconfig:"SPANSCORE_RATE_LIMIT" yaml:"rate_limit"` // requests/sec per client, 0 = disabled
}

// Load loads configuration from environment variables and optional config file.
// Precedence: defaults, then file, then environment.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	setDefaults(cfg)

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080

	cfg.Eval = EvalConfig{
		PartialMatchWeight: 1,
		Workers:            4,
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.History = HistoryConfig{
		Type:     "memory",
		RedisURL: "redis://localhost:6379",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if c.Eval.PartialMatchWeight < 0 {
		errs = append(errs, "partial_match_weight must not be negative")
	}

	if c.Eval.Workers < 1 {
		errs = append(errs, "workers must be positive")
	}

	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	validHistoryTypes := map[string]bool{"memory": true, "redis": true}
	if !validHistoryTypes[c.History.Type] {
		errs = append(errs, fmt.Sprintf("invalid history type: %s (must be memory or redis)", c.History.Type))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
