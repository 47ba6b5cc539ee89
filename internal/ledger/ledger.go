// Package ledger applies balance mutations with per-account serialization.
// The check-then-update of a withdrawal is atomic per account; operations on
// different accounts run fully in parallel, so there is deliberately no
// process-wide lock anywhere in this package.
package ledger

import (
	"bioledger/internal/domain"
	"bioledger/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	storeRetries    = 3
	storeRetryDelay = 50 * time.Millisecond
)

type Ledger struct {
	accounts repository.AccountRepository
	entries  repository.LedgerRepository

	maxTxAmount    decimal.Decimal
	recordFailures bool

	muMap map[string]*sync.Mutex
	mapMu sync.Mutex

	logger *slog.Logger
}

func New(accounts repository.AccountRepository, entries repository.LedgerRepository, maxTxAmount decimal.Decimal, recordFailures bool, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}

	return &Ledger{
		accounts:       accounts,
		entries:        entries,
		maxTxAmount:    maxTxAmount,
		recordFailures: recordFailures,
		muMap:          make(map[string]*sync.Mutex),
		logger:         logger,
	}
}

func (l *Ledger) accountLock(accountID string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[accountID]; !exists {
		l.muMap[accountID] = &sync.Mutex{}
	}
	return l.muMap[accountID]
}

// GetBalance reads the latest committed balance. A read concurrent with a
// write returns either the pre- or post-write value.
func (l *Ledger) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := l.accounts.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// Entries returns the account's append-only history in sequence order.
func (l *Ledger) Entries(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error) {
	return l.entries.GetByAccountID(ctx, accountID)
}

// Apply executes one deposit or withdrawal. On success exactly one completed
// entry is appended with a fresh sequence number and the post-operation
// balance, and the new balance is returned. Business failures are returned
// verbatim; when the recording policy is on they also leave a failed entry
// with a zero signed amount, so replaying completed amounts still
// reconstructs the balance.
func (l *Ledger) Apply(ctx context.Context, accountID string, kind domain.OperationKind, amount decimal.Decimal) (decimal.Decimal, error) {
	if kind != domain.KindDeposit && kind != domain.KindWithdraw {
		return decimal.Zero, fmt.Errorf("%w: kind %s cannot mutate a balance", domain.ErrInvalidAmount, kind)
	}
	if amount.Cmp(decimal.Zero) <= 0 {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}

	mu := l.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	account, err := l.accounts.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	if account.Status != domain.AccountActive {
		return decimal.Zero, fmt.Errorf("%w: account %s", domain.ErrAccountInactive, accountID)
	}

	if err := l.checkBusinessRules(account, kind, amount); err != nil {
		l.recordFailure(ctx, account, kind, err)
		return decimal.Zero, err
	}

	signed := amount
	if kind == domain.KindWithdraw {
		signed = amount.Neg()
	}
	newBalance := account.Balance.Add(signed)

	entry := domain.NewLedgerEntry(accountID, kind, signed, newBalance, domain.EntryCompleted)
	if err := l.appendDurable(ctx, entry, newBalance); err != nil {
		return decimal.Zero, err
	}

	l.logger.InfoContext(ctx, "Transaction committed",
		slog.String("account_id", accountID),
		slog.String("kind", string(kind)),
		slog.String("amount", amount.String()),
		slog.String("balance", newBalance.String()),
		slog.Uint64("sequence", entry.Sequence))

	return newBalance, nil
}

func (l *Ledger) checkBusinessRules(account *domain.Account, kind domain.OperationKind, amount decimal.Decimal) error {
	switch kind {
	case domain.KindDeposit:
		if l.maxTxAmount.IsPositive() && amount.Cmp(l.maxTxAmount) > 0 {
			return fmt.Errorf("%w: %s over maximum %s", domain.ErrLimitExceeded, amount, l.maxTxAmount)
		}
	case domain.KindWithdraw:
		if amount.Cmp(account.Balance) > 0 {
			return fmt.Errorf("%w: %s requested, %s available", domain.ErrInsufficientFunds, amount, account.Balance)
		}
	}
	return nil
}

// recordFailure appends a zero-amount failed entry under the account lock the
// caller already holds. A store problem here is logged, not surfaced; the
// business outcome the caller gets must stay the business error.
func (l *Ledger) recordFailure(ctx context.Context, account *domain.Account, kind domain.OperationKind, cause error) {
	if !l.recordFailures {
		return
	}

	entry := domain.NewLedgerEntry(account.ID, kind, decimal.Zero, account.Balance, domain.EntryFailed)
	if err := l.appendDurable(ctx, entry, account.Balance); err != nil {
		l.logger.ErrorContext(ctx, "Failed to record declined transaction",
			slog.String("account_id", account.ID),
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()))
	}
}

// appendDurable assigns the sequence number and persists the entry with the
// new balance, retrying a bounded number of times on store I/O failure. When
// retries exhaust the call fails with repository.ErrUnavailable rather than
// silently dropping the mutation.
func (l *Ledger) appendDurable(ctx context.Context, entry *domain.LedgerEntry, balance decimal.Decimal) error {
	var lastErr error
	for attempt := 1; attempt <= storeRetries; attempt++ {
		seq, err := l.entries.NextSequence(ctx, entry.AccountID)
		if err == nil {
			entry.Sequence = seq
			err = l.entries.Append(ctx, entry, balance)
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrUnavailable) {
			return err
		}

		lastErr = err
		l.logger.WarnContext(ctx, "Ledger store write failed",
			slog.String("account_id", entry.AccountID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		if attempt < storeRetries {
			select {
			case <-time.After(storeRetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("%w: %d attempts exhausted: %v", repository.ErrUnavailable, storeRetries, lastErr)
}
