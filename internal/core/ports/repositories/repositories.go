package repositories

// RepositoryProvider bundles the repositories a storage adapter provides.
type RepositoryProvider struct {
	AccountRepo AccountRepositoryFacade
	LedgerRepo  LedgerRepositoryFacade
	ReportRepo  ReportingRepository
}
