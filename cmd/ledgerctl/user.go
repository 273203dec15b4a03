package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/josh-kwaku/finance-ledger/internal/auth"
	"github.com/josh-kwaku/finance-ledger/internal/repository"
)

type userCmd struct {
	email    string
	name     string
	password string
}

func (*userCmd) Name() string     { return "user" }
func (*userCmd) Synopsis() string { return "register an owner, or print the id of an existing one" }
func (*userCmd) Usage() string {
	return `ledgerctl user -email <addr> [-name <display name>] [-password <secret>]

  Prints the owner id for email, creating the owner first if needed.
  -password sets or replaces the owner's login password. Without one the
  owner can only use tokens from "ledgerctl token".
`
}

func (c *userCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "Owner email (unique).")
	f.StringVar(&c.name, "name", "", "Display name for a new owner. Defaults to the email's local part.")
	f.StringVar(&c.password, "password", "", "Login password (at least 8 characters).")
}

func (c *userCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	email := strings.TrimSpace(c.email)
	if !strings.Contains(email, "@") {
		fmt.Fprintln(stderr, "-email must be an email address")
		return subcommands.ExitUsageError
	}
	name := strings.TrimSpace(c.name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	var hash string
	if c.password != "" {
		var err error
		if hash, err = auth.HashPassword(c.password); err != nil {
			fmt.Fprintln(stderr, err)
			return subcommands.ExitUsageError
		}
	}

	cfg, _, err := loadEnv()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	u, err := repository.NewUserRepository(db).Ensure(ctx, email, name, hash)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "%s\t%s\t%s\n", u.ID, u.Email, u.Name)
	return subcommands.ExitSuccess
}
