package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-ledger/internal/auth"
	"github.com/josh-kwaku/finance-ledger/internal/repository"
)

type tokenCmd struct {
	owner string
	email string
	ttl   time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "mint a bearer token for an owner" }
func (*tokenCmd) Usage() string {
	return `ledgerctl token (-owner <uuid> | -email <addr>) [-ttl <duration>]

  Signs a token with JWT_SECRET for calling the API as the given owner.
  With only -email, the owner is looked up in the database.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Owner id the token authenticates.")
	f.StringVar(&c.email, "email", "", "Email claim.")
	f.DurationVar(&c.ttl, "ttl", time.Hour, "Token lifetime.")
}

func (c *tokenCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.owner == "" && c.email == "" {
		fmt.Fprintln(stderr, "one of -owner or -email is required")
		return subcommands.ExitUsageError
	}
	if c.ttl <= 0 {
		fmt.Fprintln(stderr, "-ttl must be positive")
		return subcommands.ExitUsageError
	}

	cfg, _, err := loadEnv()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(stderr, "JWT_SECRET is not set")
		return subcommands.ExitFailure
	}

	var ownerID uuid.UUID
	if c.owner != "" {
		if ownerID, err = uuid.Parse(c.owner); err != nil {
			fmt.Fprintf(stderr, "invalid -owner: %v\n", err)
			return subcommands.ExitUsageError
		}
	} else {
		if ownerID, err = lookupOwner(ctx, cfg, c.email); err != nil {
			fmt.Fprintln(stderr, err)
			return subcommands.ExitFailure
		}
	}

	token, err := auth.GenerateToken(ownerID, c.email, cfg.JWTSecret, c.ttl)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(stdout, token)
	return subcommands.ExitSuccess
}

func lookupOwner(ctx context.Context, cfg *cliEnv, email string) (uuid.UUID, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return uuid.Nil, err
	}
	defer db.Close()

	u, err := repository.NewUserRepository(db).GetByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup %s: %w", email, err)
	}
	return u.ID, nil
}
