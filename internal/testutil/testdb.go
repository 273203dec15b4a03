package testutil

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/josh-kwaku/finance-ledger/internal/repository"
)

// ledgerTables lists every table the migrations create, children first.
var ledgerTables = []string{
	"idempotency_cache",
	"net_worth_entries",
	"loan_prepayments",
	"loan_schedule_rows",
	"loans",
	"transaction_tags",
	"tags",
	"transactions",
	"recurring_definitions",
	"accounts",
	"users",
}

var shared struct {
	once    sync.Once
	connStr string
	err     error
}

// SetupTestDB returns a pool on an empty, migrated database. The Postgres
// container is started once per test binary and reaped by testcontainers
// when the binary exits; each test starts from truncated tables.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	shared.once.Do(func() {
		shared.connStr, shared.err = startPostgres(ctx)
	})
	if shared.err != nil {
		t.Fatalf("start postgres: %v", shared.err)
	}

	db, err := sql.Open("postgres", shared.connStr)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.ExecContext(ctx, `TRUNCATE `+strings.Join(ledgerTables, ", ")+` CASCADE`); err != nil {
		t.Fatalf("reset tables: %v", err)
	}
	return db
}

func startPostgres(ctx context.Context) (string, error) {
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("ledger_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", err
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return "", err
	}
	defer db.Close()

	if _, err := repository.RunMigrations(ctx, db, repository.FindMigrationsDir()); err != nil {
		return "", err
	}
	return connStr, nil
}
