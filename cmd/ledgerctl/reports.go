package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/SscSPs/points_ledger/internal/dto"
	"github.com/google/subcommands"
)

// timeFlag is an optional RFC 3339 flag value; unset leaves the bound open.
type timeFlag struct {
	t *time.Time
}

func (f *timeFlag) String() string {
	if f.t == nil {
		return ""
	}
	return f.t.Format(time.RFC3339)
}

func (f *timeFlag) Set(s string) error {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("expected an RFC 3339 timestamp: %w", err)
	}
	f.t = &t
	return nil
}

type volumeCmd struct {
	market     int64
	start, end timeFlag
}

func (*volumeCmd) Name() string     { return "volume" }
func (*volumeCmd) Synopsis() string { return "print the trading volume of a market" }
func (*volumeCmd) Usage() string {
	return `ledgerctl volume -market <id> [-start <rfc3339>] [-end <rfc3339>]

  Sums the points traded in a market within [start, end).
`
}

func (c *volumeCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.market, "market", 0, "market ID.")
	f.Var(&c.start, "start", "inclusive window start.")
	f.Var(&c.end, "end", "exclusive window end.")
}

func (c *volumeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.market <= 0 {
		fmt.Fprintln(os.Stderr, "-market is required")
		return subcommands.ExitUsageError
	}
	ledger, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer ledger.Close()

	vol, err := ledger.Services.Reporting.TradingVolume(ctx, c.market, c.start.t, c.end.t)
	if err != nil {
		return fail(err)
	}
	return printJSON(dto.ToTradingVolumeResponse(vol))
}

type marketsCmd struct{}

func (*marketsCmd) Name() string           { return "markets" }
func (*marketsCmd) Synopsis() string       { return "rank markets by capitalization" }
func (*marketsCmd) Usage() string          { return "ledgerctl markets\n" }
func (*marketsCmd) SetFlags(*flag.FlagSet) {}

func (*marketsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer ledger.Close()

	caps, err := ledger.Services.Reporting.MarketCapitalizations(ctx)
	if err != nil {
		return fail(err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "market\taccount\tcapitalization\t")
	for _, m := range caps {
		fmt.Fprintf(w, "%d\t%d\t%s\t\n", m.MarketID, m.AccountID, m.Capitalization)
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
