package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/dto"
	"github.com/google/subcommands"
)

type balanceCmd struct{}

func (*balanceCmd) Name() string           { return "balance" }
func (*balanceCmd) Synopsis() string       { return "print current account balances" }
func (*balanceCmd) Usage() string          { return "ledgerctl balance <account-id>...\n" }
func (*balanceCmd) SetFlags(*flag.FlagSet) {}

func (*balanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ids, err := parseIDs(f.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	ledger, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer ledger.Close()

	out := make([]dto.AccountBalanceResponse, 0, len(ids))
	for _, id := range ids {
		bal, err := ledger.Services.Balance.CurrentBalance(ctx, id)
		if err != nil {
			return fail(err)
		}
		out = append(out, dto.AccountBalanceResponse{AccountID: id, Balance: bal})
	}
	return printJSON(out)
}

type historyCmd struct {
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print the mutation history of an account" }
func (*historyCmd) Usage() string {
	return `ledgerctl history [-n <count>] <account-id>

  Prints the account history oldest first, one mutation per line.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 0, "stop after n entries (0 prints everything).")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ids, err := parseIDs(f.Args())
	if err != nil || len(ids) != 1 {
		fmt.Fprintln(os.Stderr, "exactly one account ID is required")
		return subcommands.ExitUsageError
	}
	ledger, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer ledger.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "mutation\ttransaction\ttype\tcreated\tamount\tbalance\t")
	n := 0
	for e, err := range ledger.Services.Balance.History(ctx, ids[0]) {
		if err != nil {
			w.Flush()
			return fail(err)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t\n", e.MutationID, e.TransactionID, e.TransactionType,
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Amount, e.PostBalance)
		n++
		if c.limit > 0 && n >= c.limit {
			break
		}
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type verifyCmd struct{}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "replay account histories and check the stored balances" }
func (*verifyCmd) Usage() string {
	return `ledgerctl verify <account-id>...

  Exits with status 1 when any account diverges. Nothing is repaired.
`
}
func (*verifyCmd) SetFlags(*flag.FlagSet) {}

func (*verifyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ids, err := parseIDs(f.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	ledger, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer ledger.Close()

	status := subcommands.ExitSuccess
	for _, id := range ids {
		report, err := ledger.Services.Balance.VerifyAccount(ctx, id)
		var integrityErr *apperrors.IntegrityError
		switch {
		case errors.As(err, &integrityErr):
			fmt.Printf("account %d: DIVERGED at mutation %d (stored %s, history %s)\n",
				id, integrityErr.MutationID, integrityErr.Stored, integrityErr.Recomputed)
			status = subcommands.ExitFailure
		case err != nil:
			return fail(err)
		default:
			fmt.Printf("account %d: ok, %d entries, balance %s\n", id, report.Entries, report.Balance)
		}
	}
	return status
}
