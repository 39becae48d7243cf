package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN", "ARCHIVE_DRIVER", "ARCHIVE_DSN", "SESSION_IDLE_TTL",
		"SESSION_SWEEP_INTERVAL", "EXPORT_FILE_NAME", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "vocab.json", cfg.Export.FileName)

	ttl, err := cfg.IdleTTL()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, ttl)

	assert.Error(t, cfg.ValidateServe(), "token is required to serve")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "vocabdeck.yaml")

	cfg := DefaultConfig()
	cfg.Archive.Driver = "sqlite3"
	cfg.Archive.DSN = "decks.db"
	cfg.Session.IdleTTL = "45m"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	require.NoError(t, loaded.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "vocabdeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  token: from-file\nlogging:\n  level: warn\n"), 0o600))

	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("ARCHIVE_DRIVER", "postgres")
	t.Setenv("ARCHIVE_DSN", "postgres://localhost/decks")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "postgres", cfg.Archive.Driver)
	require.NoError(t, cfg.ValidateServe())
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram: ["), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad ttl", func(c *Config) { c.Session.IdleTTL = "soon" }},
		{"zero interval", func(c *Config) { c.Session.SweepInterval = "0s" }},
		{"unknown driver", func(c *Config) { c.Archive.Driver = "mysql"; c.Archive.DSN = "x" }},
		{"driver without dsn", func(c *Config) { c.Archive.Driver = "sqlite3" }},
		{"blank file name", func(c *Config) { c.Export.FileName = " " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
