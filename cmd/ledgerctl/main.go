// Command ledgerctl runs operator tasks against the ledger database:
// migrations, one-off recurring scans, owner setup, token minting and
// schedule previews.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&migrateCmd{}, "database")
	commander.Register(&generateDueCmd{}, "database")
	commander.Register(&scheduleCmd{}, "loans")
	commander.Register(&userCmd{}, "auth")
	commander.Register(&tokenCmd{}, "auth")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
