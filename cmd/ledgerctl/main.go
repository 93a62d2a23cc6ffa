// Command ledgerctl operates a points ledger from the command line.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

var inMemory = flag.Bool("memory", false, "run against an empty in-memory ledger instead of PostgreSQL")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "ledger")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

var commands = []subcommands.Command{
	&migrateCmd{},
	&ensureCmd{},
	&incomeCmd{},
	&transferCmd{},
	&fundMarketCmd{},
	&balanceCmd{},
	&historyCmd{},
	&verifyCmd{},
	&txCmd{},
	&volumeCmd{},
	&marketsCmd{},
}
