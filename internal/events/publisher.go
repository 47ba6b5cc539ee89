package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionCompleted is emitted after a mutation has been durably
// committed to the ledger.
type TransactionCompleted struct {
	EntryID    string          `json:"entry_id"`
	AccountID  string          `json:"account_id"`
	Kind       string          `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	Sequence   uint64          `json:"sequence"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type Publisher interface {
	Publish(topic string, event any) error
}

// NoopPublisher is used when no broker is configured; publishing is an
// observability concern and must never affect the ledger outcome.
type NoopPublisher struct{}

func (NoopPublisher) Publish(topic string, event any) error { return nil }

var _ Publisher = NoopPublisher{}
