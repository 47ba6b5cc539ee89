package validator

import (
	"bioledger/internal/domain"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateTemplate(t *testing.T) {
	v := NewRequestValidator()

	if err := v.ValidateTemplate(make([]byte, domain.TemplateSize)); err != nil {
		t.Errorf("expected fixed-size template to pass, got %v", err)
	}
	if err := v.ValidateTemplate(nil); !errors.Is(err, ErrBadTemplate) {
		t.Errorf("expected ErrBadTemplate for nil, got %v", err)
	}
	if err := v.ValidateTemplate(make([]byte, domain.TemplateSize-1)); !errors.Is(err, ErrBadTemplate) {
		t.Errorf("expected ErrBadTemplate for short vector, got %v", err)
	}
}

func TestValidateAmount(t *testing.T) {
	v := NewRequestValidator()

	valid := []string{"0.01", "10", "150.00", "9999999.99"}
	for _, s := range valid {
		amount, _ := decimal.NewFromString(s)
		if err := v.ValidateAmount(amount); err != nil {
			t.Errorf("amount %s: expected valid, got %v", s, err)
		}
	}

	invalid := []string{"0", "-1", "-0.01", "1.005"}
	for _, s := range invalid {
		amount, _ := decimal.NewFromString(s)
		if err := v.ValidateAmount(amount); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("amount %s: expected ErrInvalidAmount, got %v", s, err)
		}
	}
}

func TestValidateKind(t *testing.T) {
	v := NewRequestValidator()

	for _, kind := range []domain.OperationKind{domain.KindDeposit, domain.KindWithdraw, domain.KindInquiry} {
		if err := v.ValidateKind(kind); err != nil {
			t.Errorf("kind %s: expected valid, got %v", kind, err)
		}
	}
	if err := v.ValidateKind("transfer"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
