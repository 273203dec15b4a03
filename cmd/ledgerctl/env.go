package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/josh-kwaku/finance-ledger/internal/logging"
	"github.com/josh-kwaku/finance-ledger/internal/repository"
)

// cliEnv is the subset of the server configuration the operator commands
// need. JWT_SECRET is only required by the token command.
type cliEnv struct {
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
}

func loadEnv() (*cliEnv, *slog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("loadEnv: .env: %w", err)
	}
	cfg, err := env.ParseAs[cliEnv]()
	if err != nil {
		return nil, nil, fmt.Errorf("loadEnv: %w", err)
	}
	logger := logging.New(stderr, "ledgerctl", cfg.LogLevel, cfg.AppEnv)
	return &cfg, logger, nil
}

func openDB(ctx context.Context, cfg *cliEnv) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return repository.Open(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	})
}
