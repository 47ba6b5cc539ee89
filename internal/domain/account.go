package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountActive      AccountStatus = "active"
	AccountDeactivated AccountStatus = "deactivated"
)

// Account is an enrolled identity the ledger keeps a balance for.
// Accounts are never deleted, only deactivated.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Status    AccountStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewAccount(id, name string, initialBalance decimal.Decimal) *Account {
	return &Account{
		ID:        id,
		Name:      name,
		Balance:   initialBalance,
		Status:    AccountActive,
		CreatedAt: time.Now(),
	}
}
