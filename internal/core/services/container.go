package services

import (
	"github.com/SscSPs/points_ledger/internal/core/ports/events"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/points_ledger/internal/core/ports/services"
)

// ContainerOptions carries the optional collaborators of the services.
type ContainerOptions struct {
	Cache           portsrepo.BalanceCache
	Publisher       events.Publisher
	Retry           RetryPolicy
	HistoryPageSize int
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, opts ContainerOptions) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(repos.AccountRepo)

	ledgerOpts := []LedgerOption{}
	balanceOpts := []BalanceOption{WithHistoryPageSize(opts.HistoryPageSize)}
	if opts.Cache != nil {
		ledgerOpts = append(ledgerOpts, WithBalanceCache(opts.Cache))
		balanceOpts = append(balanceOpts, WithReadThroughCache(opts.Cache))
	}
	if opts.Publisher != nil {
		ledgerOpts = append(ledgerOpts, WithEventPublisher(opts.Publisher))
	}
	if opts.Retry.MaxAttempts > 0 {
		ledgerOpts = append(ledgerOpts, WithRetryPolicy(opts.Retry))
	}

	container.Ledger = NewLedgerService(container.Account, repos.LedgerRepo, ledgerOpts...)
	container.Balance = NewBalanceService(repos.AccountRepo, repos.LedgerRepo, balanceOpts...)
	if repos.ReportRepo != nil {
		container.Reporting = NewReportingService(repos.ReportRepo)
	}

	return container
}
