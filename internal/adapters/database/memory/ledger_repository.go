package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
)

// LedgerRepository implements the ledger ports over a Store.
type LedgerRepository struct {
	store *Store
}

var _ portsrepo.LedgerRepositoryFacade = (*LedgerRepository)(nil)

// WithinTx runs fn with a unit of work whose writes become visible only when fn
// returns nil. Account locks taken through the handle are released on return.
func (r *LedgerRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) (err error) {
	tx := &memTx{store: r.store, held: make(map[int64]chan struct{})}
	defer tx.release()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

func (r *LedgerRepository) LatestSnapshot(ctx context.Context, accountID int64) (domain.BalanceSnapshot, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestSnapshotLocked(accountID), nil
}

func (r *LedgerRepository) ListEntries(ctx context.Context, accountID int64, afterMutationID int64, limit int) ([]domain.LedgerEntry, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return []domain.LedgerEntry{}, nil
	}
	ids := s.accountMutations[accountID]
	start := sort.Search(len(ids), func(i int) bool { return ids[i] > afterMutationID })

	entries := make([]domain.LedgerEntry, 0, min(limit, len(ids)-start))
	for _, id := range ids[start:] {
		if len(entries) == limit {
			break
		}
		m := s.mutations[id]
		t := s.txs[m.TransactionID].tx
		entries = append(entries, domain.LedgerEntry{
			MutationID:      m.MutationID,
			TransactionID:   m.TransactionID,
			TransactionType: t.Type,
			CreatedAt:       t.CreatedAt,
			Amount:          m.Amount,
			PostBalance:     m.PostBalance,
		})
	}
	return entries, nil
}

func (r *LedgerRepository) FindTransactionByID(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.txs[transactionID]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %d", apperrors.ErrNotFound, transactionID)
	}
	tx := stored.tx
	tx.Mutations = make([]domain.Mutation, 0, len(stored.mutationIDs))
	for _, id := range stored.mutationIDs {
		tx.Mutations = append(tx.Mutations, s.mutations[id])
	}
	return &tx, nil
}

// memTx stages the writes of one unit of work.
type memTx struct {
	store *Store
	held  map[int64]chan struct{}

	txs       []domain.Transaction
	mutations []domain.Mutation
	snapshots []domain.BalanceSnapshot
}

var _ portsrepo.LedgerTx = (*memTx)(nil)

func (t *memTx) LockAccounts(ctx context.Context, accountIDs []int64) (map[int64]domain.Account, error) {
	s := t.store
	for _, id := range sortedUnique(accountIDs) {
		if _, ok := t.held[id]; ok {
			continue
		}
		if !s.accountExists(id) {
			return nil, notFound(id)
		}
		if err := s.checkFault("lock", id); err != nil {
			return nil, err
		}
		ch := s.lockChan(id)
		select {
		case ch <- struct{}{}:
			t.held[id] = ch
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	locked := make(map[int64]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		locked[id] = s.accounts[id]
	}
	return locked, nil
}

func (t *memTx) LatestBalance(ctx context.Context, accountID int64) (domain.Amount, error) {
	for i := len(t.snapshots) - 1; i >= 0; i-- {
		if t.snapshots[i].AccountID == accountID {
			return t.snapshots[i].PostBalance, nil
		}
	}
	s := t.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestSnapshotLocked(accountID).PostBalance, nil
}

func (t *memTx) InsertTransaction(ctx context.Context, txType domain.TransactionType, createdAt time.Time) (int64, error) {
	s := t.store
	s.mu.Lock()
	s.nextTxID++
	id := s.nextTxID
	s.mu.Unlock()

	t.txs = append(t.txs, domain.Transaction{TransactionID: id, Type: txType, CreatedAt: createdAt})
	return id, nil
}

func (t *memTx) InsertMutation(ctx context.Context, transactionID, accountID int64, amount domain.Amount) (int64, error) {
	if _, ok := t.held[accountID]; !ok {
		return 0, fmt.Errorf("mutation on account %d without its lock", accountID)
	}
	s := t.store
	if err := s.checkFault("insert_mutation", accountID); err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.nextMutationID++
	id := s.nextMutationID
	s.mu.Unlock()

	t.mutations = append(t.mutations, domain.Mutation{
		MutationID:    id,
		TransactionID: transactionID,
		AccountID:     accountID,
		Amount:        amount,
	})
	return id, nil
}

func (t *memTx) InsertBalanceSnapshot(ctx context.Context, snapshot domain.BalanceSnapshot) error {
	if err := t.store.checkFault("insert_snapshot", snapshot.AccountID); err != nil {
		return err
	}
	for _, existing := range t.snapshots {
		if existing.AccountID == snapshot.AccountID && existing.MutationID == snapshot.MutationID {
			return fmt.Errorf("%w: snapshot for account %d mutation %d exists", apperrors.ErrIntegrity, snapshot.AccountID, snapshot.MutationID)
		}
	}
	t.snapshots = append(t.snapshots, snapshot)
	return nil
}

func (t *memTx) SumMutations(ctx context.Context, accountID int64) (domain.Amount, error) {
	s := t.store
	s.mu.RLock()
	amounts := make([]domain.Amount, 0, len(s.accountMutations[accountID]))
	for _, id := range s.accountMutations[accountID] {
		amounts = append(amounts, s.mutations[id].Amount)
	}
	s.mu.RUnlock()

	for _, m := range t.mutations {
		if m.AccountID == accountID {
			amounts = append(amounts, m.Amount)
		}
	}
	return domain.SumAmounts(amounts...)
}

func (t *memTx) commit() error {
	if err := t.store.checkFault("commit", 0); err != nil {
		return err
	}
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := make(map[int64]domain.Amount, len(t.snapshots))
	for _, snap := range t.snapshots {
		posts[snap.MutationID] = snap.PostBalance
		s.snapshots[snap.AccountID] = append(s.snapshots[snap.AccountID], snap)
	}
	for _, tx := range t.txs {
		s.txs[tx.TransactionID] = &storedTransaction{tx: tx}
	}
	for _, m := range t.mutations {
		m.PostBalance = posts[m.MutationID]
		s.mutations[m.MutationID] = m
		s.accountMutations[m.AccountID] = append(s.accountMutations[m.AccountID], m.MutationID)
		if stored, ok := s.txs[m.TransactionID]; ok {
			stored.mutationIDs = append(stored.mutationIDs, m.MutationID)
		}
	}
	return nil
}

func (t *memTx) release() {
	for id, ch := range t.held {
		<-ch
		delete(t.held, id)
	}
}
