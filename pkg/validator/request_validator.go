package validator

import (
	"bioledger/internal/domain"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrBadTemplate = errors.New("malformed template")
)

// RequestValidator checks request-level preconditions before anything
// reaches the matcher or the ledger.
type RequestValidator struct {
	templateSize int
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{templateSize: domain.TemplateSize}
}

func (v *RequestValidator) ValidateTemplate(vector []byte) error {
	if len(vector) != v.templateSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBadTemplate, len(vector), v.templateSize)
	}
	return nil
}

// ValidateAmount rejects non-positive amounts and anything finer than cent
// precision. Decimal inputs cannot carry NaN or infinity, so "non-finite"
// never survives parsing.
func (v *RequestValidator) ValidateAmount(amount decimal.Decimal) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	if amount.Exponent() < -2 {
		return fmt.Errorf("%w: at most two decimal places", domain.ErrInvalidAmount)
	}
	return nil
}

func (v *RequestValidator) ValidateKind(kind domain.OperationKind) error {
	switch kind {
	case domain.KindDeposit, domain.KindWithdraw, domain.KindInquiry:
		return nil
	default:
		return fmt.Errorf("unknown operation kind: %s", kind)
	}
}
