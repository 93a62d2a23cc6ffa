// Package memory is an in-process implementation of the repository ports. It
// serializes ledger writes with one lock per account, taken in ascending ID
// order, and buffers every write of a unit of work until it commits.
package memory

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
)

// FaultFunc lets tests fail a store operation. op is one of "lock",
// "insert_mutation", "insert_snapshot" or "commit".
type FaultFunc func(op string, accountID int64) error

type ownerKey struct {
	owner    domain.Owner
	currency domain.Currency
}

type storedTransaction struct {
	tx          domain.Transaction
	mutationIDs []int64
}

// Store holds accounts, transactions, mutations and snapshots in memory.
type Store struct {
	mu sync.RWMutex

	accounts map[int64]domain.Account
	byOwner  map[ownerKey]int64
	txs      map[int64]*storedTransaction
	// mutations by ID, with the post balance of their snapshot
	mutations map[int64]domain.Mutation
	// per-account mutation IDs and snapshots, ascending
	accountMutations map[int64][]int64
	snapshots        map[int64][]domain.BalanceSnapshot

	nextAccountID  int64
	nextTxID       int64
	nextMutationID int64

	locksMu sync.Mutex
	locks   map[int64]chan struct{}

	fault FaultFunc
	now   func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		accounts:         make(map[int64]domain.Account),
		byOwner:          make(map[ownerKey]int64),
		txs:              make(map[int64]*storedTransaction),
		mutations:        make(map[int64]domain.Mutation),
		accountMutations: make(map[int64][]int64),
		snapshots:        make(map[int64][]domain.BalanceSnapshot),
		locks:            make(map[int64]chan struct{}),
		now:              time.Now,
	}
}

// SetFault installs f; nil removes it.
func (s *Store) SetFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

func (s *Store) checkFault(op string, accountID int64) error {
	s.mu.RLock()
	f := s.fault
	s.mu.RUnlock()
	if f == nil {
		return nil
	}
	return f(op, accountID)
}

// Counts reports the number of stored transactions, mutations and snapshots.
func (s *Store) Counts() (transactions, mutations, snapshots int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, snaps := range s.snapshots {
		snapshots += len(snaps)
	}
	return len(s.txs), len(s.mutations), snapshots
}

// CorruptSnapshot overwrites a stored post balance. It exists for audit tests.
func (s *Store) CorruptSnapshot(accountID, mutationID int64, post domain.Amount) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, snap := range s.snapshots[accountID] {
		if snap.MutationID == mutationID {
			s.snapshots[accountID][i].PostBalance = post
			m := s.mutations[mutationID]
			m.PostBalance = post
			s.mutations[mutationID] = m
			return true
		}
	}
	return false
}

// NewRepositoryProvider exposes s through the repository ports.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo: &AccountRepository{store: s},
		LedgerRepo:  &LedgerRepository{store: s},
		ReportRepo:  &ReportingRepository{store: s},
	}
}

func (s *Store) lockChan(accountID int64) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[accountID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[accountID] = ch
	}
	return ch
}

func (s *Store) latestSnapshotLocked(accountID int64) domain.BalanceSnapshot {
	snaps := s.snapshots[accountID]
	if len(snaps) == 0 {
		return domain.BalanceSnapshot{AccountID: accountID, PostBalance: domain.ZeroAmount}
	}
	return snaps[len(snaps)-1]
}

func (s *Store) accountExists(accountID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[accountID]
	return ok
}

func notFound(accountID int64) error {
	return fmt.Errorf("%w: ID %d", apperrors.ErrAccountNotFound, accountID)
}

func sortedUnique(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
