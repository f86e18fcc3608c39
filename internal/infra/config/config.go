// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/trackcore/internal/domain/options"
	"github.com/osa030/trackcore/internal/infra/backend"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig            `yaml:"server"`
	Log       LogConfig               `yaml:"log"`
	Player    options.Player          `yaml:"player"`
	Metadata  *options.Metadata       `yaml:"metadata"` // Nil keeps the session defaults
	Simulator backend.SimulatorConfig `yaml:"simulator"`
	MPRIS     MPRISConfig             `yaml:"mpris"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080" validate:"required"`
	Token string      `yaml:"token"` // Required in the X-Admin-Token header when set
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// LogConfig represents logger configuration.
type LogConfig struct {
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	File  string `yaml:"file"` // Empty logs to stdout
}

// MPRISConfig represents the desktop media-control bridge configuration.
type MPRISConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name" default:"trackcore" validate:"required"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("TRACKCORE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TRACKCORE_TOKEN"); v != "" {
		c.Server.Token = v
	}
	if v := os.Getenv("TRACKCORE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TRACKCORE_MPRIS"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.MPRIS.Enabled = enabled
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	// Options carry their own cross-field rules
	if err := c.Player.Validate(); err != nil {
		return errors.Wrap(err, "player")
	}
	if c.Metadata != nil {
		if err := c.Metadata.Validate(); err != nil {
			return errors.Wrap(err, "metadata")
		}
	}

	return nil
}

// MetadataOptions returns the configured metadata options, or the defaults.
func (c *Config) MetadataOptions() options.Metadata {
	if c.Metadata == nil {
		return options.DefaultMetadata()
	}
	return c.Metadata.Clone()
}
