package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OperationKind string
type EntryStatus string

const (
	KindDeposit  OperationKind = "deposit"
	KindWithdraw OperationKind = "withdraw"
	KindInquiry  OperationKind = "inquiry"

	EntryCompleted EntryStatus = "completed"
	EntryFailed    EntryStatus = "failed"
)

// LedgerEntry is one immutable record in an account's append-only history.
// Sequence numbers are per account and strictly increasing in commit order.
// Replaying the signed amounts of completed entries against the initial
// balance reconstructs the current balance exactly; failed entries, when the
// recording policy keeps them, carry a zero signed amount.
type LedgerEntry struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Kind      OperationKind   `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	Status    EntryStatus     `json:"status"`
	Sequence  uint64          `json:"sequence"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewLedgerEntry(accountID string, kind OperationKind, signedAmount, balance decimal.Decimal, status EntryStatus) *LedgerEntry {
	return &LedgerEntry{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Kind:      kind,
		Amount:    signedAmount,
		Balance:   balance,
		Status:    status,
		CreatedAt: time.Now(),
	}
}
