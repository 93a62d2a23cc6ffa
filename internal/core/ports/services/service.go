package services

// ServiceContainer holds instances of all the application services.
// It is the main entry point for the handlers and the CLI.
type ServiceContainer struct {
	Account   AccountSvcFacade
	Ledger    LedgerSvcFacade
	Balance   BalanceSvcFacade
	Reporting ReportingService
}
