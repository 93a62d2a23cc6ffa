package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/SscSPs/points_ledger/internal/app"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/SscSPs/points_ledger/pkg/config"
	"github.com/google/subcommands"
)

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// openLedger loads the configuration and wires the services.
func openLedger(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, newLogger(cfg), app.Options{InMemory: *inMemory})
}

func printJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

// ownerFlags binds the flags that identify an account owner.
type ownerFlags struct {
	kind     string
	userID   int64
	marketID int64
	outcome  int64
}

func (o *ownerFlags) register(f *flag.FlagSet) {
	f.StringVar(&o.kind, "kind", string(domain.OwnerUser), "owner kind (user, market_points, market_pool).")
	f.Int64Var(&o.userID, "user", 0, "user ID, for -kind user.")
	f.Int64Var(&o.marketID, "market", 0, "market ID, for the market kinds.")
	f.Int64Var(&o.outcome, "outcome", 0, "outcome ID, for -kind market_pool.")
}

func (o *ownerFlags) owner() domain.Owner {
	return domain.Owner{
		Kind:      domain.OwnerKind(o.kind),
		UserID:    o.userID,
		MarketID:  o.marketID,
		OutcomeID: o.outcome,
	}
}

// parseIDs parses positional arguments as positive IDs.
func parseIDs(args []string) ([]int64, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one ID is required")
	}
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid ID %q", arg)
		}
		ids[i] = id
	}
	return ids, nil
}
