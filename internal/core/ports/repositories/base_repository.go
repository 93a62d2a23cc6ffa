package repositories

import "context"

// UnitOfWork runs fn inside one store transaction. The transaction commits when
// fn returns nil and rolls back on every other exit path, including panics.
// The LedgerTx handle must not be used after fn returns.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}
