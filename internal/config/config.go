package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for configuration values.
const (
	DefaultMinEdgeThreshold = 0.02
	DefaultKellyCap         = 0.25
	DefaultStake            = 100.0
	DefaultDBPath           = "/data/intelligence.db"
	DefaultPort             = "8080"
	DefaultAlertCooldown    = 5 * time.Minute
	DefaultReferenceBooks   = "pinnacle,betfair"
)

// Config holds all application configuration.
type Config struct {
	MinEdgeThreshold float64
	KellyCap         float64
	DefaultStake     float64
	DBPath           string
	Port             string
	ReferenceBooks   []string
	AlertCooldown    time.Duration

	// Telegram alert settings (alerts disabled when token is empty)
	TelegramBotToken string
	TelegramChatID   int64
}

// Load reads configuration from environment variables (and .env file if present).
func Load() Config {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg := Config{
		MinEdgeThreshold: DefaultMinEdgeThreshold,
		KellyCap:         DefaultKellyCap,
		DefaultStake:     DefaultStake,
		DBPath:           DefaultDBPath,
		Port:             DefaultPort,
		ReferenceBooks:   splitBooks(DefaultReferenceBooks),
		AlertCooldown:    DefaultAlertCooldown,

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if v := os.Getenv("MIN_EDGE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MinEdgeThreshold = f
		}
	}

	if v := os.Getenv("KELLY_CAP"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.KellyCap = f
		}
	}

	if v := os.Getenv("DEFAULT_STAKE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.DefaultStake = f
		}
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := os.Getenv("REFERENCE_BOOKS"); v != "" {
		cfg.ReferenceBooks = splitBooks(v)
	}

	if v := os.Getenv("ALERT_COOLDOWN_SECONDS"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.AlertCooldown = time.Duration(s) * time.Second
		}
	}

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = id
		}
	}

	return cfg
}

// Validate checks that configuration values are within acceptable ranges.
func Validate(cfg Config) error {
	if cfg.MinEdgeThreshold < 0 || cfg.MinEdgeThreshold > 1 {
		return fmt.Errorf("MIN_EDGE_THRESHOLD must be between 0 and 1, got %f", cfg.MinEdgeThreshold)
	}
	if cfg.KellyCap <= 0 || cfg.KellyCap > 1 {
		return fmt.Errorf("KELLY_CAP must be between 0 and 1, got %f", cfg.KellyCap)
	}
	if cfg.DefaultStake <= 0 {
		return fmt.Errorf("DEFAULT_STAKE must be positive, got %f", cfg.DefaultStake)
	}
	if cfg.AlertCooldown < time.Second {
		return fmt.Errorf("ALERT_COOLDOWN_SECONDS must be at least 1s, got %v", cfg.AlertCooldown)
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}

func splitBooks(s string) []string {
	var books []string
	for _, b := range strings.Split(s, ",") {
		b = strings.TrimSpace(strings.ToLower(b))
		if b != "" {
			books = append(books, b)
		}
	}
	return books
}
