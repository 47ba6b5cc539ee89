package repository

import (
	"bioledger/internal/domain"
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type TemplateRepository interface {
	// Enroll stores the template for an account, superseding any prior one.
	Enroll(ctx context.Context, tpl *domain.BiometricTemplate) error
	Lookup(ctx context.Context, accountID string) (*domain.BiometricTemplate, error)
	// All returns every enrolled template ordered by account ID, so matcher
	// scans are reproducible.
	All(ctx context.Context) ([]*domain.BiometricTemplate, error)
}

type AccountRepository interface {
	Save(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error
}

type LedgerRepository interface {
	// Append persists one entry and the account's post-operation balance as a
	// single durable unit. Success must not be reported to the caller before
	// the write is durable.
	Append(ctx context.Context, entry *domain.LedgerEntry, balance decimal.Decimal) error
	// NextSequence returns the next per-account sequence number. Callers hold
	// the account's serialization lock, so two calls never race for one
	// account.
	NextSequence(ctx context.Context, accountID string) (uint64, error)
	GetByAccountID(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error)
}

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("duplicate entry")
	ErrUnavailable = errors.New("store unavailable")
)
