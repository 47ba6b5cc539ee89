package memory

import (
	"bioledger/internal/domain"
	"bioledger/internal/repository"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.ID]; exists {
		return fmt.Errorf("%w: account %s", repository.ErrDuplicate, account.ID)
	}

	cp := *account
	cp.CreatedAt = time.Now()
	r.accounts[account.ID] = &cp

	return nil
}

// GetByID returns a copy so a read concurrent with a balance write observes
// either the pre- or post-write value, never a partially applied one.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, fmt.Errorf("%w: account %s", repository.ErrNotFound, id)
	}
	cp := *account
	return &cp, nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, exists := r.accounts[id]
	if !exists {
		return fmt.Errorf("%w: account %s", repository.ErrNotFound, id)
	}

	account.Status = status
	return nil
}

func (r *AccountRepository) setBalance(id string, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, exists := r.accounts[id]
	if !exists {
		return fmt.Errorf("%w: account %s", repository.ErrNotFound, id)
	}

	account.Balance = balance
	return nil
}
