// ABOUTME: Configuration loading and parsing for prism-relay
// ABOUTME: Supports YAML files with environment variable expansion and chat-filter defaults

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Chat filter defaults applied when a value is missing or invalid. Bad
// config falls back here and is never fatal.
const (
	DefaultCooldownSeconds   = 1.5
	DefaultSpamWindowSeconds = 3.0
	DefaultSpamMaxMessages   = 4
	DefaultRepeatMinLength   = 4
	DefaultRepeatSimilarity  = 0.9
)

// Config represents the complete prism-relay configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Chat     ChatConfig     `yaml:"chat"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the health/status endpoint address
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig holds the shared Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ChatConfig holds the spam filter thresholds. Pointer fields distinguish
// "absent" from an explicit zero, which disables the check.
type ChatConfig struct {
	CooldownSeconds   *float64 `yaml:"cooldown-seconds"`
	SpamWindowSeconds *float64 `yaml:"spam-window-seconds"`
	SpamMaxMessages   *int     `yaml:"spam-max-messages"`
	RepeatMinLength   *int     `yaml:"repeat-min-length"`
	RepeatSimilarity  *float64 `yaml:"repeat-similarity"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded and
// defaults are applied before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration written by the init command.
func Default() *Config {
	cfg := &Config{
		Server:   ServerConfig{HTTPAddr: "127.0.0.1:8195"},
		Database: DatabaseConfig{Path: "prism-relay.db"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
	cfg.applyDefaults()
	return cfg
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills missing or invalid values. Negative thresholds are
// treated as invalid, not as disabled.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8195"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Chat.CooldownSeconds == nil || *c.Chat.CooldownSeconds < 0 {
		v := DefaultCooldownSeconds
		c.Chat.CooldownSeconds = &v
	}
	if c.Chat.SpamWindowSeconds == nil || *c.Chat.SpamWindowSeconds < 0 {
		v := DefaultSpamWindowSeconds
		c.Chat.SpamWindowSeconds = &v
	}
	if c.Chat.SpamMaxMessages == nil || *c.Chat.SpamMaxMessages < 0 {
		v := DefaultSpamMaxMessages
		c.Chat.SpamMaxMessages = &v
	}
	if c.Chat.RepeatMinLength == nil || *c.Chat.RepeatMinLength < 0 {
		v := DefaultRepeatMinLength
		c.Chat.RepeatMinLength = &v
	}
	if c.Chat.RepeatSimilarity == nil || *c.Chat.RepeatSimilarity < 0 || *c.Chat.RepeatSimilarity > 1 {
		v := DefaultRepeatSimilarity
		c.Chat.RepeatSimilarity = &v
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}
