package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/SscSPs/points_ledger/internal/dto"
	"github.com/google/subcommands"
)

type incomeCmd struct {
	owner  ownerFlags
	amount string
}

func (*incomeCmd) Name() string     { return "income" }
func (*incomeCmd) Synopsis() string { return "credit points to an owner" }
func (*incomeCmd) Usage() string {
	return `ledgerctl income -kind <kind> [-user <id>] [-market <id>] [-outcome <id>] -amount <amount>

  Commits an income transaction on the owner's points account, creating the
  account when needed.
`
}

func (c *incomeCmd) SetFlags(f *flag.FlagSet) {
	c.owner.register(f)
	f.StringVar(&c.amount, "amount", "", "amount to credit, at most two decimals.")
}

func (c *incomeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := domain.ParseAmount(c.amount)
	if err != nil {
		return fail(err)
	}
	ledger, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer ledger.Close()

	tx, err := ledger.Services.Ledger.CreateTransactionIncome(ctx, c.owner.owner(), amount)
	if err != nil {
		return fail(err)
	}
	return printJSON(dto.ToTransactionResponse(tx))
}

type transferCmd struct {
	from, to int64
	amount   string
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "move points between two accounts" }
func (*transferCmd) Usage() string {
	return `ledgerctl transfer -from <account> -to <account> -amount <amount>
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.from, "from", 0, "account to debit.")
	f.Int64Var(&c.to, "to", 0, "account to credit.")
	f.StringVar(&c.amount, "amount", "", "amount to move.")
}

func (c *transferCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := domain.ParseAmount(c.amount)
	if err != nil {
		return fail(err)
	}
	ledger, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer ledger.Close()

	tx, err := ledger.Services.Ledger.Transfer(ctx, c.from, c.to, amount)
	if err != nil {
		return fail(err)
	}
	return printJSON(dto.ToTransactionResponse(tx))
}

type fundMarketCmd struct {
	userID, marketID int64
	amount           string
}

func (*fundMarketCmd) Name() string     { return "fund-market" }
func (*fundMarketCmd) Synopsis() string { return "move points from a user into a market" }
func (*fundMarketCmd) Usage() string {
	return `ledgerctl fund-market -user <id> -market <id> -amount <amount>
`
}

func (c *fundMarketCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.userID, "user", 0, "funding user.")
	f.Int64Var(&c.marketID, "market", 0, "market to fund.")
	f.StringVar(&c.amount, "amount", "", "amount to move.")
}

func (c *fundMarketCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := domain.ParseAmount(c.amount)
	if err != nil {
		return fail(err)
	}
	ledger, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer ledger.Close()

	tx, err := ledger.Services.Ledger.FundMarket(ctx, c.userID, c.marketID, amount)
	if err != nil {
		return fail(err)
	}
	return printJSON(dto.ToTransactionResponse(tx))
}

type txCmd struct{}

func (*txCmd) Name() string             { return "tx" }
func (*txCmd) Synopsis() string         { return "show a transaction and its mutations" }
func (*txCmd) Usage() string            { return "ledgerctl tx <transaction-id>\n" }
func (*txCmd) SetFlags(_ *flag.FlagSet) {}

func (*txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ids, err := parseIDs(f.Args())
	if err != nil || len(ids) != 1 {
		fmt.Fprintln(os.Stderr, "exactly one transaction ID is required")
		return subcommands.ExitUsageError
	}
	ledger, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer ledger.Close()

	tx, err := ledger.Services.Ledger.GetTransaction(ctx, ids[0])
	if err != nil {
		return fail(err)
	}
	return printJSON(dto.ToTransactionResponse(tx))
}
