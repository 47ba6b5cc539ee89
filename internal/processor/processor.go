package processor

import (
	"bioledger/internal/auth"
	"bioledger/internal/domain"
	"bioledger/internal/events"
	"bioledger/internal/ledger"
	"bioledger/internal/repository"
	"bioledger/pkg/validator"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

const completedTopic = "transaction_completed"

// TransactionProcessor is the only path from a caller to a ledger mutation.
// Every mutating call is authenticated; there is no way to reach the ledger
// without a session the authenticator accepted.
type TransactionProcessor struct {
	authenticator *auth.Authenticator
	ledger        *ledger.Ledger
	accounts      repository.AccountRepository
	templates     repository.TemplateRepository
	validator     *validator.RequestValidator
	publisher     events.Publisher
	logger        *slog.Logger
}

type Result struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

func NewTransactionProcessor(
	authenticator *auth.Authenticator,
	l *ledger.Ledger,
	accounts repository.AccountRepository,
	templates repository.TemplateRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) *TransactionProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}

	return &TransactionProcessor{
		authenticator: authenticator,
		ledger:        l,
		accounts:      accounts,
		templates:     templates,
		validator:     validator.NewRequestValidator(),
		publisher:     publisher,
		logger:        logger,
	}
}

// Execute runs one operation against an authenticated session. Session
// errors propagate verbatim; a session that was valid at admission is
// allowed to complete even if it expires while the operation runs.
func (p *TransactionProcessor) Execute(ctx context.Context, token string, kind domain.OperationKind, amount decimal.Decimal) (*Result, error) {
	accountID, err := p.authenticator.Validate(token)
	if err != nil {
		return nil, err
	}

	if err := p.validator.ValidateKind(kind); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}

	if kind == domain.KindInquiry {
		balance, err := p.ledger.GetBalance(ctx, accountID)
		if err != nil {
			return nil, err
		}
		return &Result{AccountID: accountID, Balance: balance}, nil
	}

	if err := p.validator.ValidateAmount(amount); err != nil {
		return nil, err
	}

	balance, err := p.ledger.Apply(ctx, accountID, kind, amount)
	if err != nil {
		return nil, err
	}

	// Single-use policy: the session is spent by its first committed
	// mutation. A declined mutation leaves it usable.
	if err := p.authenticator.Consume(token); err != nil && !errors.Is(err, domain.ErrSessionExpired) {
		p.logger.WarnContext(ctx, "Session consume failed after commit",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()))
	}

	p.publishCompleted(ctx, accountID, kind, amount, balance)

	return &Result{AccountID: accountID, Balance: balance}, nil
}

// History returns the authenticated account's ledger entries in sequence
// order. Like inquiry, it never consumes the session.
func (p *TransactionProcessor) History(ctx context.Context, token string) ([]*domain.LedgerEntry, error) {
	accountID, err := p.authenticator.Validate(token)
	if err != nil {
		return nil, err
	}
	entries, err := p.ledger.Entries(ctx, accountID)
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return []*domain.LedgerEntry{}, nil
	}
	return entries, err
}

// Enroll registers an identity: the account record (unless it already
// exists) and its biometric template. Re-enrolling an existing account
// supersedes the stored template and leaves the balance alone.
func (p *TransactionProcessor) Enroll(ctx context.Context, accountID, name string, template []byte, initialBalance decimal.Decimal) error {
	if err := p.validator.ValidateTemplate(template); err != nil {
		return err
	}
	if initialBalance.IsNegative() {
		return fmt.Errorf("%w: initial balance cannot be negative", domain.ErrInvalidAmount)
	}

	_, err := p.accounts.GetByID(ctx, accountID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if err := p.accounts.Save(ctx, domain.NewAccount(accountID, name, initialBalance)); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	tpl := &domain.BiometricTemplate{AccountID: accountID, Vector: template}
	if err := p.templates.Enroll(ctx, tpl); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "Account enrolled",
		slog.String("account_id", accountID))
	return nil
}

// Deactivate blocks future operations on the account. Accounts are never
// deleted, so the ledger history stays auditable.
func (p *TransactionProcessor) Deactivate(ctx context.Context, accountID string) error {
	return p.accounts.UpdateStatus(ctx, accountID, domain.AccountDeactivated)
}

func (p *TransactionProcessor) publishCompleted(ctx context.Context, accountID string, kind domain.OperationKind, amount, balance decimal.Decimal) {
	event := events.TransactionCompleted{
		AccountID:  accountID,
		Kind:       string(kind),
		Amount:     amount,
		Balance:    balance,
		OccurredAt: time.Now(),
	}
	if err := p.publisher.Publish(completedTopic, event); err != nil {
		// Publishing is observability, not bookkeeping; the committed
		// mutation stands either way.
		p.logger.ErrorContext(ctx, "Failed to publish transaction event",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()))
	}
}
