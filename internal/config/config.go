// Package config handles tutorchat configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration structure for tutorchat.
type Config struct {
	// API settings
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Auth settings
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// Chat settings
	Chat ChatConfig `yaml:"chat" mapstructure:"chat"`

	// Cache settings
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	// BaseURL is the marketplace API root.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// TimeoutSeconds bounds each request.
	TimeoutSeconds int `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// AuthConfig identifies the viewer. The token is an opaque credential
// owned by the marketplace auth flow; tutorchat only forwards it.
type AuthConfig struct {
	// UserID is the viewer's marketplace user id.
	UserID string `yaml:"user_id" mapstructure:"user_id"`

	// Token is the bearer credential (usually set via TUTORCHAT_AUTH_TOKEN).
	Token string `yaml:"token" mapstructure:"token"`
}

// ChatConfig contains chat behavior settings.
type ChatConfig struct {
	// PollIntervalSeconds is the chat-list refresh cadence.
	PollIntervalSeconds int `yaml:"poll_interval_seconds" mapstructure:"poll_interval_seconds"`

	// PageSize is the page size used by the aggregation fetches.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`
}

// CacheConfig contains local message cache settings.
type CacheConfig struct {
	// Enabled toggles the SQLite cache.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console, auto).
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		API: APIConfig{
			TimeoutSeconds: 20,
		},
		Chat: ChatConfig{
			PollIntervalSeconds: 30,
			PageSize:            50,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(homeDir, ".local", "share", "tutorchat", "cache.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// PollInterval returns the poll cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Chat.PollIntervalSeconds) * time.Second
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be positive")
	}
	if c.Chat.PollIntervalSeconds <= 0 {
		return fmt.Errorf("chat.poll_interval_seconds must be positive")
	}
	if c.Chat.PageSize <= 0 {
		return fmt.Errorf("chat.page_size must be positive")
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) == "" {
		return fmt.Errorf("cache.path is required when the cache is enabled")
	}
	switch c.Logging.Format {
	case "json", "console", "auto":
	default:
		return fmt.Errorf("logging.format must be json, console or auto")
	}
	return nil
}
