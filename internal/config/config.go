package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"dev"`
	ProdOrigins string `env:"PROD_ORIGINS"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	DBDSN         string `env:"DB_DSN,required,notEmpty"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns    int32  `env:"DB_MIN_CONNS" envDefault:"0"`
	// Connections older than this are closed and replaced.
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// ClockTimezone is the zone whose wall clock working hours are written in.
	ClockTimezone string `env:"CLOCK_TIMEZONE" envDefault:"Local"`

	KafkaBrokers  string `env:"KAFKA_BROKERS"`
	KafkaTopic    string `env:"KAFKA_TOPIC" envDefault:"appointment.events"`
	NotifyBuffer  int    `env:"NOTIFY_BUFFER" envDefault:"256"`
	NotifyWorkers int    `env:"NOTIFY_WORKERS" envDefault:"2"`

	RedisURL           string `env:"REDIS_URL"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	CatalogCacheTTL  time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"30s"`
	CatalogCacheSize int           `env:"CATALOG_CACHE_SIZE" envDefault:"1024"`

	StoreRetryAttempts uint `env:"STORE_RETRY_ATTEMPTS" envDefault:"3"`
}

// IsProduction reports whether APP_ENV selects production behavior.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, PROD_STRING)
}

// Location resolves ClockTimezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ClockTimezone)
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid CLOCK_TIMEZONE: %w", err)
	}
	if cfg.StoreRetryAttempts == 0 {
		return nil, fmt.Errorf("STORE_RETRY_ATTEMPTS must be at least 1")
	}
	if cfg.NotifyBuffer <= 0 || cfg.NotifyWorkers <= 0 {
		return nil, fmt.Errorf("NOTIFY_BUFFER and NOTIFY_WORKERS must be positive")
	}

	return cfg, nil
}
