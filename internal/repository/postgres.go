package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Open opens a pool against databaseURL and pings it once.
func Open(ctx context.Context, databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: ping: %w", err)
	}
	return db, nil
}

// Connect retries Open every interval until Postgres answers or ctx is done.
// The database usually starts alongside the API in compose setups.
func Connect(ctx context.Context, databaseURL string, pool PoolConfig, interval time.Duration) (*sql.DB, error) {
	log := slog.Default()
	for attempt := 1; ; attempt++ {
		db, err := Open(ctx, databaseURL, pool)
		if err == nil {
			return db, nil
		}
		log.Info("waiting for database", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("Connect: gave up after %d attempts: %w", attempt, err)
		case <-time.After(interval):
		}
	}
}
