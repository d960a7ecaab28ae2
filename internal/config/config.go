package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends
const (
	BackendClickHouse = "clickhouse"
	BackendSQLite     = "sqlite"
	BackendMemory     = "memory"
)

// Config holds the application configuration
type Config struct {
	TelegramToken  string  `env:"TELEGRAM_BOT_TOKEN"`
	AllowedUserIDs []int64 `env:"ALLOWED_USER_IDS,required,notEmpty" envSeparator:","`

	// Bot mode configuration
	WebhookMode bool   `env:"WEBHOOK_MODE"` // If true, use webhook mode; if false, use polling mode
	WebhookURL  string `env:"WEBHOOK_URL"`  // URL for webhook (required if WebhookMode is true)
	Port        int    `env:"PORT" envDefault:"8080"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"clickhouse"`
	UseMockDB      bool   `env:"USE_MOCK_DB"`

	// ClickHouse configuration
	ClickHouseHost     string `env:"CLICKHOUSE_HOST"`
	ClickHousePort     int    `env:"CLICKHOUSE_PORT" envDefault:"9000"`
	ClickHouseDatabase string `env:"CLICKHOUSE_DATABASE" envDefault:"default"`
	ClickHouseUser     string `env:"CLICKHOUSE_USER" envDefault:"default"`
	ClickHousePassword string `env:"CLICKHOUSE_PASSWORD"`
	ClickHouseUseTLS   bool   `env:"CLICKHOUSE_USE_TLS"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"truthgoals.db"`

	// Enables bearer token auth on the API when set
	JWTSecret string `env:"JWT_SECRET"`

	// IANA zone that decides which calendar day a reading belongs to
	Timezone string `env:"TIMEZONE" envDefault:"Local"`
	Location *time.Location

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	// Optional chat that receives book completion announcements
	NotificationChatID   int64 `env:"NOTIFICATION_CHAT_ID"`
	NotificationThreadID int   `env:"NOTIFICATION_THREAD_ID"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// Telegram Bot Token (required)
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if config.WebhookMode && config.WebhookURL == "" {
		return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
	}

	if config.UseMockDB {
		config.StorageBackend = BackendMemory
	}

	switch config.StorageBackend {
	case BackendClickHouse:
		if config.ClickHouseHost == "" {
			return nil, fmt.Errorf("CLICKHOUSE_HOST is required when STORAGE_BACKEND is clickhouse")
		}
	case BackendSQLite:
		if strings.TrimSpace(config.SQLitePath) == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required when STORAGE_BACKEND is sqlite")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %s (expected clickhouse, sqlite or memory)", config.StorageBackend)
	}

	// env's time.Location parser copies the zone, which detaches "Local"
	// from the process zone, so it is resolved here instead
	location, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	config.Location = location

	return config, nil
}
