// Package config loads application settings from a YAML file, a .env file and
// the environment, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all vocabdeck configuration
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Session  SessionConfig  `yaml:"session"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Export   ExportConfig   `yaml:"export"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TelegramConfig configures the bot transport
type TelegramConfig struct {
	Token         string `yaml:"token"`
	Debug         bool   `yaml:"debug"`
	UpdateTimeout int    `yaml:"update_timeout"` // Long polling timeout in seconds
	ListPageSize  int    `yaml:"list_page_size"` // Cards per /list message
}

// SessionConfig configures in-memory sessions
type SessionConfig struct {
	IdleTTL       string `yaml:"idle_ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

// ArchiveConfig configures the optional deck archive.
// An empty driver disables it.
type ArchiveConfig struct {
	Driver string `yaml:"driver"` // sqlite3 or postgres
	DSN    string `yaml:"dsn"`
}

// ExportConfig configures downloads
type ExportConfig struct {
	FileName string `yaml:"file_name"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			UpdateTimeout: 60,
			ListPageSize:  50,
		},
		Session: SessionConfig{
			IdleTTL:       "2h",
			SweepInterval: "5m",
		},
		Export: ExportConfig{
			FileName: "vocab.json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path (if it exists), then .env, then the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	// .env is optional; variables already set in the environment are kept
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("ARCHIVE_DRIVER"); v != "" {
		c.Archive.Driver = v
	}
	if v := os.Getenv("ARCHIVE_DSN"); v != "" {
		c.Archive.DSN = v
	}
	if v := os.Getenv("SESSION_IDLE_TTL"); v != "" {
		c.Session.IdleTTL = v
	}
	if v := os.Getenv("SESSION_SWEEP_INTERVAL"); v != "" {
		c.Session.SweepInterval = v
	}
	if v := os.Getenv("EXPORT_FILE_NAME"); v != "" {
		c.Export.FileName = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if _, err := c.IdleTTL(); err != nil {
		return err
	}
	if _, err := c.SweepInterval(); err != nil {
		return err
	}
	switch c.Archive.Driver {
	case "", "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported archive driver %q", c.Archive.Driver)
	}
	if c.Archive.Driver != "" && c.Archive.DSN == "" {
		return fmt.Errorf("archive driver %q needs a DSN", c.Archive.Driver)
	}
	if strings.TrimSpace(c.Export.FileName) == "" {
		return fmt.Errorf("export file name is empty")
	}
	return nil
}

// ValidateServe additionally requires what the bot needs to run
func (c *Config) ValidateServe() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	return c.Validate()
}

// IdleTTL parses Session.IdleTTL
func (c *Config) IdleTTL() (time.Duration, error) {
	return parsePositive("session.idle_ttl", c.Session.IdleTTL)
}

// SweepInterval parses Session.SweepInterval
func (c *Config) SweepInterval() (time.Duration, error) {
	return parsePositive("session.sweep_interval", c.Session.SweepInterval)
}

func parsePositive(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, value)
	}
	return d, nil
}
