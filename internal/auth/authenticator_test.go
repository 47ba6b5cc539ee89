package auth

import (
	"bioledger/internal/domain"
	"bioledger/internal/matcher"
	"bioledger/internal/repository/memory"
	"bioledger/pkg/crypto"
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func newTestAuthenticator(t *testing.T, singleUse bool) (*Authenticator, *memory.TemplateRepository) {
	t.Helper()
	templates := memory.NewTemplateRepository()
	m := matcher.New(templates, matcher.HammingSimilarity, 0.85, 0.02, nil)
	signer := crypto.NewSigner("test-secret", nil)
	return NewAuthenticator(m, signer, 120*time.Second, singleUse, nil), templates
}

func enrollTemplate(t *testing.T, templates *memory.TemplateRepository, accountID string, vector []byte) {
	t.Helper()
	tpl := &domain.BiometricTemplate{AccountID: accountID, Vector: vector}
	if err := templates.Enroll(context.Background(), tpl); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
}

func TestAuthenticator_AuthenticateAndValidate(t *testing.T) {
	a, templates := newTestAuthenticator(t, false)
	vector := bytes.Repeat([]byte{0xAB}, domain.TemplateSize)
	enrollTemplate(t, templates, "acc1", vector)

	session, err := a.Authenticate(context.Background(), vector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.AccountID != "acc1" {
		t.Errorf("expected session for acc1, got %s", session.AccountID)
	}
	if !session.ExpiresAt.After(session.IssuedAt) {
		t.Errorf("expected expiry after issue time")
	}

	accountID, err := a.Validate(session.Token)
	if err != nil {
		t.Fatalf("unexpected error on Validate: %v", err)
	}
	if accountID != "acc1" {
		t.Errorf("expected acc1, got %s", accountID)
	}
}

func TestAuthenticator_NoMatchFails(t *testing.T) {
	a, templates := newTestAuthenticator(t, false)
	enrollTemplate(t, templates, "acc1", bytes.Repeat([]byte{0xFF}, domain.TemplateSize))

	_, err := a.Authenticate(context.Background(), bytes.Repeat([]byte{0x00}, domain.TemplateSize))

	if !errors.Is(err, domain.ErrAuthFailed) {
		t.Errorf("expected ErrAuthFailed, got %v", err)
	}
}

func TestAuthenticator_AmbiguousMatchFailsIdentically(t *testing.T) {
	a, templates := newTestAuthenticator(t, false)
	base := bytes.Repeat([]byte{0x00}, domain.TemplateSize)
	tplA := append([]byte(nil), base...)
	tplA[0] ^= 0x0F
	tplB := append([]byte(nil), base...)
	tplB[domain.TemplateSize-1] ^= 0x0F
	enrollTemplate(t, templates, "A", tplA)
	enrollTemplate(t, templates, "B", tplB)

	_, err := a.Authenticate(context.Background(), base)

	// Ambiguous and no-match must be indistinguishable to the caller.
	if !errors.Is(err, domain.ErrAuthFailed) {
		t.Errorf("expected ErrAuthFailed for ambiguous match, got %v", err)
	}
}

func TestAuthenticator_ExpiryCheckedOnEveryValidation(t *testing.T) {
	a, templates := newTestAuthenticator(t, false)
	vector := bytes.Repeat([]byte{0xC3}, domain.TemplateSize)
	enrollTemplate(t, templates, "acc1", vector)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a.WithClock(func() time.Time { return current })

	session, err := a.Authenticate(context.Background(), vector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One nanosecond before expiry is still valid.
	current = session.ExpiresAt.Add(-time.Nanosecond)
	if _, err := a.Validate(session.Token); err != nil {
		t.Fatalf("expected valid session just before expiry, got %v", err)
	}

	// Exactly at expiry the session is rejected, zero skew tolerated.
	current = session.ExpiresAt
	if _, err := a.Validate(session.Token); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired at expiry instant, got %v", err)
	}

	// After expiry the session stays gone, even presented with the same token.
	current = session.ExpiresAt.Add(time.Hour)
	if _, err := a.Validate(session.Token); err == nil {
		t.Fatal("expected error for expired session")
	}
}

func TestAuthenticator_TamperedTokenIsInvalid(t *testing.T) {
	a, templates := newTestAuthenticator(t, false)
	vector := bytes.Repeat([]byte{0x3C}, domain.TemplateSize)
	enrollTemplate(t, templates, "acc1", vector)

	session, err := a.Authenticate(context.Background(), vector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = a.Validate(session.Token + "x")
	if !errors.Is(err, domain.ErrSessionInvalid) {
		t.Errorf("expected ErrSessionInvalid for tampered token, got %v", err)
	}

	_, err = a.Validate("not-even-a-token")
	if !errors.Is(err, domain.ErrSessionInvalid) {
		t.Errorf("expected ErrSessionInvalid for garbage token, got %v", err)
	}
}

func TestAuthenticator_SingleUseConsumesSession(t *testing.T) {
	a, templates := newTestAuthenticator(t, true)
	vector := bytes.Repeat([]byte{0x77}, domain.TemplateSize)
	enrollTemplate(t, templates, "acc1", vector)

	session, err := a.Authenticate(context.Background(), vector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := a.Consume(session.Token); err != nil {
		t.Fatalf("unexpected error on Consume: %v", err)
	}
	if _, err := a.Validate(session.Token); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Errorf("expected consumed session to be invalid, got %v", err)
	}
}

func TestAuthenticator_MultiUseSurvivesConsume(t *testing.T) {
	a, templates := newTestAuthenticator(t, false)
	vector := bytes.Repeat([]byte{0x88}, domain.TemplateSize)
	enrollTemplate(t, templates, "acc1", vector)

	session, _ := a.Authenticate(context.Background(), vector)

	_ = a.Consume(session.Token)
	if _, err := a.Validate(session.Token); err != nil {
		t.Errorf("multi-use session should remain valid, got %v", err)
	}
}

func TestAuthenticator_Logout(t *testing.T) {
	a, templates := newTestAuthenticator(t, false)
	vector := bytes.Repeat([]byte{0x99}, domain.TemplateSize)
	enrollTemplate(t, templates, "acc1", vector)

	session, _ := a.Authenticate(context.Background(), vector)

	if err := a.Logout(session.Token); err != nil {
		t.Fatalf("unexpected error on Logout: %v", err)
	}
	if _, err := a.Validate(session.Token); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Errorf("expected logged-out session to be invalid, got %v", err)
	}
}
