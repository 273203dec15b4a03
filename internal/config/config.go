package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string        `env:"APP_ENV" envDefault:"production"`

	// RecurringPollInterval drives the in-process generate-due trigger.
	// Zero leaves generation to an external caller.
	RecurringPollInterval time.Duration `env:"RECURRING_POLL_INTERVAL" envDefault:"0s"`
	IdempotencyTTL        time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

// Load reads .env from the working directory when present, then parses the
// environment. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if cfg.RecurringPollInterval < 0 {
		return nil, fmt.Errorf("config.Load: RECURRING_POLL_INTERVAL must not be negative")
	}
	if cfg.JWTExpiry <= 0 {
		return nil, fmt.Errorf("config.Load: JWT_EXPIRY must be positive")
	}
	if cfg.IdempotencyTTL <= 0 {
		return nil, fmt.Errorf("config.Load: IDEMPOTENCY_TTL must be positive")
	}

	return &cfg, nil
}

func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeS) * time.Second
}

func (c *Config) ConnMaxIdleTime() time.Duration {
	return time.Duration(c.DBConnMaxIdleTimeS) * time.Second
}
