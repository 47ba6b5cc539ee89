package memory

import (
	"bioledger/internal/domain"
	"bioledger/internal/repository"
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// LedgerRepository keeps the append-only entry log in memory. It holds a
// reference to the account repository so an entry and the resulting balance
// land together, mirroring the single database transaction of the postgres
// implementation.
type LedgerRepository struct {
	mu        sync.RWMutex
	entries   map[string][]*domain.LedgerEntry
	sequences map[string]uint64
	accounts  *AccountRepository
}

func NewLedgerRepository(accounts *AccountRepository) *LedgerRepository {
	return &LedgerRepository{
		entries:   make(map[string][]*domain.LedgerEntry),
		sequences: make(map[string]uint64),
		accounts:  accounts,
	}
}

func (r *LedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry, balance decimal.Decimal) error {
	if err := r.accounts.setBalance(entry.AccountID, balance); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *entry
	r.entries[entry.AccountID] = append(r.entries[entry.AccountID], &cp)
	return nil
}

func (r *LedgerRepository) NextSequence(ctx context.Context, accountID string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequences[accountID]++
	return r.sequences[accountID], nil
}

func (r *LedgerRepository) GetByAccountID(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.entries[accountID]
	if !exists {
		return nil, fmt.Errorf("%w: ledger for account %s", repository.ErrNotFound, accountID)
	}

	result := make([]*domain.LedgerEntry, len(stored))
	copy(result, stored)
	return result, nil
}
