// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the sonar engine, the alert
// watchers and the terminal dashboard.
type Config struct {
	// Polymarket endpoints
	PolymarketWSURL string
	GammaAPIURL     string

	// Ingestion
	MinTradeUSD        float64
	TopNMarkets        int
	ReconnectDelay     time.Duration
	RediscoverInterval time.Duration // 0 disables periodic re-discovery

	// Database
	DatabaseURL string

	// Alerting
	TelegramBotToken   string
	TelegramChatID     string
	DiscordWebhookURL  string
	CheckInterval      time.Duration
	MinAlertScore      float64
	MinAlertUSD        float64
	WhaleAlertUSD      float64
	DigestInterval     time.Duration
	SignalScanInterval time.Duration

	// UI
	UIRefreshRate time.Duration

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables with fallback to .env file.
// Priority order: Environment variables > .env file > hardcoded defaults
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		// Polymarket
		PolymarketWSURL: getEnv("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),
		GammaAPIURL:     getEnv("GAMMA_API_URL", "https://gamma-api.polymarket.com/markets"),

		// Ingestion
		MinTradeUSD:        getEnvFloat("MIN_TRADE_USD", 5.0),
		TopNMarkets:        getEnvInt("TOP_N_MARKETS", 20),
		ReconnectDelay:     time.Duration(getEnvInt("RECONNECT_DELAY_SECONDS", 5)) * time.Second,
		RediscoverInterval: time.Duration(getEnvInt("REDISCOVER_INTERVAL_MINUTES", 0)) * time.Minute,

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Alerting
		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:     getEnv("TELEGRAM_CHAT_ID", ""),
		DiscordWebhookURL:  getEnv("DISCORD_WEBHOOK_URL", ""),
		CheckInterval:      time.Duration(getEnvInt("CHECK_INTERVAL_SECONDS", 15)) * time.Second,
		MinAlertScore:      getEnvFloat("MIN_ALERT_SCORE", 3.0),
		MinAlertUSD:        getEnvFloat("MIN_ALERT_USD", 500),
		WhaleAlertUSD:      getEnvFloat("WHALE_ALERT_USD", 10000),
		DigestInterval:     time.Duration(getEnvInt("DIGEST_INTERVAL_MINUTES", 60)) * time.Minute,
		SignalScanInterval: time.Duration(getEnvInt("SIGNAL_SCAN_SECONDS", 60)) * time.Second,

		// UI
		UIRefreshRate: time.Duration(getEnvInt("UI_REFRESH_SECONDS", 10)) * time.Second,

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.PolymarketWSURL == "" {
		return fmt.Errorf("POLYMARKET_WS_URL is required")
	}

	if c.GammaAPIURL == "" {
		return fmt.Errorf("GAMMA_API_URL is required")
	}

	if c.MinTradeUSD < 0 {
		return fmt.Errorf("MIN_TRADE_USD must not be negative")
	}

	if c.TopNMarkets < 1 {
		return fmt.Errorf("TOP_N_MARKETS must be at least 1")
	}

	if c.ReconnectDelay < time.Second {
		return fmt.Errorf("RECONNECT_DELAY_SECONDS must be at least 1")
	}

	if c.CheckInterval < time.Second {
		return fmt.Errorf("CHECK_INTERVAL_SECONDS must be at least 1")
	}

	return nil
}

// HasTelegram reports whether Telegram alerting is configured.
func (c *Config) HasTelegram() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// HasDiscord reports whether Discord alerting is configured.
func (c *Config) HasDiscord() bool {
	return c.DiscordWebhookURL != ""
}

// MaskedTelegramToken returns the bot token with most characters hidden for logging.
func (c *Config) MaskedTelegramToken() string {
	return maskSecret(c.TelegramBotToken)
}

// MaskedDiscordWebhook returns the webhook URL with most characters hidden for logging.
func (c *Config) MaskedDiscordWebhook() string {
	return maskSecret(c.DiscordWebhookURL)
}

// maskSecret hides all but the first and last 4 characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat retrieves an environment variable as a float64 or returns a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
