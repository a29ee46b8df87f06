package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the server
type Config struct {
	App     AppConfig
	Catalog CatalogConfig
	API     APIConfig
}

type AppConfig struct {
	Addr        string `env:"SERVER_ADDR" envDefault:":8080"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogFilePath string `env:"LOG_FILE_PATH" envDefault:"iconbase.log"`
}

type CatalogConfig struct {
	BaseURL        string        `env:"CATALOG_BASE_URL" envDefault:"http://localhost:8000"`
	RequestTimeout time.Duration `env:"CATALOG_REQUEST_TIMEOUT" envDefault:"30s"`
	MaxWorkers     int64         `env:"CATALOG_MAX_WORKERS" envDefault:"256"`
	QueueSize      int           `env:"CATALOG_QUEUE_SIZE" envDefault:"128"`
	ShutdownPoll   time.Duration `env:"CATALOG_SHUTDOWN_POLL" envDefault:"10ms"`
	RatePerSecond  float64       `env:"CATALOG_RATE_PER_SECOND" envDefault:"0"` // 0 = unlimited
	RateBurst      int           `env:"CATALOG_RATE_BURST" envDefault:"8"`
	UserAgent      string        `env:"CATALOG_USER_AGENT" envDefault:"iconbase-mini/1.0"`
}

type APIConfig struct {
	RatePerHour int `env:"API_RATE_PER_HOUR" envDefault:"3600"`
	RateBurst   int `env:"API_RATE_BURST" envDefault:"60"`
}

// IsProduction reports whether the app runs in production mode
func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads an optional .env file and then parses the environment.
// The bool result reports whether a .env file was found.
func Load() (*Config, bool, error) {
	found := godotenv.Load() == nil

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, found, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, found, err
	}
	return &cfg, found, nil
}

func (c *Config) validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("CATALOG_BASE_URL is required")
	}
	if c.Catalog.MaxWorkers <= 0 {
		return fmt.Errorf("CATALOG_MAX_WORKERS must be positive, got %d", c.Catalog.MaxWorkers)
	}
	if c.Catalog.QueueSize <= 0 {
		return fmt.Errorf("CATALOG_QUEUE_SIZE must be positive, got %d", c.Catalog.QueueSize)
	}
	if c.Catalog.ShutdownPoll <= 0 {
		return fmt.Errorf("CATALOG_SHUTDOWN_POLL must be positive, got %s", c.Catalog.ShutdownPoll)
	}
	if c.Catalog.RatePerSecond < 0 {
		return fmt.Errorf("CATALOG_RATE_PER_SECOND must not be negative")
	}
	return nil
}
