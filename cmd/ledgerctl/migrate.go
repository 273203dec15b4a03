package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/josh-kwaku/finance-ledger/internal/repository"
)

type migrateCmd struct {
	dir string
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply the *.up.sql migrations in order" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate [-dir <path>]

  Executes every *.up.sql file in the migrations directory in lexical
  order. The files are re-runnable.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "Migrations directory. Defaults to the nearest ./migrations up the tree.")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, err := loadEnv()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	dir := c.dir
	if dir == "" {
		dir = repository.FindMigrationsDir()
	}

	applied, err := repository.RunMigrations(ctx, db, dir)
	if err != nil {
		logger.Error("migration failed", "dir", dir, "error", err)
		return subcommands.ExitFailure
	}
	for _, f := range applied {
		fmt.Fprintln(stdout, f)
	}
	logger.Info("migrations applied", "dir", dir, "count", len(applied))
	return subcommands.ExitSuccess
}
