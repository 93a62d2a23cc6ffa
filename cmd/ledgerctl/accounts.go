package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/SscSPs/points_ledger/internal/dto"
	"github.com/SscSPs/points_ledger/pkg/config"
	"github.com/SscSPs/points_ledger/pkg/database"
	"github.com/google/subcommands"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate

  Applies every pending migration from MIGRATIONS_PATH to PGSQL_URL.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if *inMemory {
		fmt.Fprintln(os.Stderr, "migrate needs PostgreSQL, drop -memory")
		return subcommands.ExitUsageError
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return fail(err)
	}
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, newLogger(cfg)); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type ensureCmd struct {
	owner    ownerFlags
	currency string
	create   bool
}

func (*ensureCmd) Name() string     { return "ensure" }
func (*ensureCmd) Synopsis() string { return "find or create the account of an owner" }
func (*ensureCmd) Usage() string {
	return `ledgerctl ensure -kind <kind> [-user <id>] [-market <id>] [-outcome <id>] [-currency <c>] [-create=false]

  Prints the account of the owner, creating it unless -create=false.
`
}

func (c *ensureCmd) SetFlags(f *flag.FlagSet) {
	c.owner.register(f)
	f.StringVar(&c.currency, "currency", string(domain.CurrencyPoints), "account currency.")
	f.BoolVar(&c.create, "create", true, "create the account when it does not exist.")
}

func (c *ensureCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer ledger.Close()

	svc := ledger.Services.Account
	var acc *domain.Account
	if c.create {
		acc, err = svc.EnsureAccount(ctx, c.owner.owner(), domain.Currency(c.currency))
	} else {
		acc, err = svc.ExpectAccount(ctx, c.owner.owner(), domain.Currency(c.currency))
	}
	if err != nil {
		return fail(err)
	}
	return printJSON(dto.ToAccountResponse(acc))
}
