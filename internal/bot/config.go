package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Cards shown per /list message
	ListPageSize int
	// Download name for the JSON export; other formats swap the extension
	ExportFileName string
	// Long polling timeout in seconds
	UpdateTimeout int
	// Largest upload the bot will fetch
	MaxUploadBytes int64
	// Time allowed for fetching an uploaded file
	DownloadTimeout time.Duration
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		ListPageSize:    50,
		ExportFileName:  "vocab.json",
		UpdateTimeout:   60,
		MaxUploadBytes:  5 << 20,
		DownloadTimeout: 30 * time.Second,
	}
}
