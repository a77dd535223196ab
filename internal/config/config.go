package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application. It is built once in
// main and passed down explicitly.
type Config struct {
	AppEnv         string
	TelegramToken  string
	BotEnabled     bool
	StorageDriver  string
	DatabaseURL    string
	MigrationsPath string
	JWTSecret      string
	TokenTTL       time.Duration
	InitDataMaxAge time.Duration
	FirecrawlKey   string
	FirecrawlURL   string
	ScrapeTimeout  time.Duration
	LogLevel       string
	LogFormat      string
	PrometheusPort string
	Port           string
}

// IsDevelopment returns true when running with APP_ENV=development
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load loads configuration from an optional .env file and environment
// variables. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, defaultValue string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		AppEnv:         get("APP_ENV", "production"),
		TelegramToken:  getenv("TELEGRAM_TOKEN"),
		StorageDriver:  get("STORAGE_DRIVER", DriverPostgres),
		DatabaseURL:    getenv("DATABASE_URL"),
		MigrationsPath: get("MIGRATIONS_PATH", "migrations"),
		JWTSecret:      getenv("JWT_SECRET"),
		FirecrawlKey:   getenv("FIRECRAWL_API_KEY"),
		FirecrawlURL:   get("FIRECRAWL_URL", "https://api.firecrawl.dev/v0/scrape"),
		LogLevel:       get("LOG_LEVEL", "info"),
		LogFormat:      get("LOG_FORMAT", "text"),
		PrometheusPort: get("PROMETHEUS_PORT", "9090"),
		Port:           get("PORT", "8080"),
	}

	var err error
	if cfg.BotEnabled, err = strconv.ParseBool(get("BOT_ENABLED", "true")); err != nil {
		return nil, fmt.Errorf("BOT_ENABLED must be a boolean: %w", err)
	}
	if cfg.TokenTTL, err = time.ParseDuration(get("TOKEN_TTL", "30m")); err != nil {
		return nil, fmt.Errorf("TOKEN_TTL must be a duration: %w", err)
	}
	if cfg.InitDataMaxAge, err = time.ParseDuration(get("INIT_DATA_MAX_AGE", "24h")); err != nil {
		return nil, fmt.Errorf("INIT_DATA_MAX_AGE must be a duration: %w", err)
	}
	if cfg.ScrapeTimeout, err = time.ParseDuration(get("SCRAPE_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("SCRAPE_TIMEOUT must be a duration: %w", err)
	}

	// Required environment variables
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	// The bot token also keys the mini-app initData signature.
	if cfg.TelegramToken == "" && (cfg.BotEnabled || !cfg.IsDevelopment()) {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required")
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}
