package auth

import (
	"bioledger/internal/domain"
	"bioledger/internal/matcher"
	"bioledger/pkg/crypto"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Authenticator turns matcher output into time-bounded sessions. It never
// tells a failed caller whether no template matched or whether the match was
// ambiguous; both surface as domain.ErrAuthFailed.
type Authenticator struct {
	matcher   *matcher.Matcher
	signer    *crypto.Signer
	ttl       time.Duration
	singleUse bool

	mu       sync.Mutex
	sessions map[string]*domain.Session

	logger *slog.Logger
	now    func() time.Time
}

func NewAuthenticator(m *matcher.Matcher, signer *crypto.Signer, ttl time.Duration, singleUse bool, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Authenticator{
		matcher:   m,
		signer:    signer,
		ttl:       ttl,
		singleUse: singleUse,
		sessions:  make(map[string]*domain.Session),
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Tests use it to cross the expiry
// boundary without sleeping.
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

func (a *Authenticator) Authenticate(ctx context.Context, template []byte) (*domain.Session, error) {
	result, err := a.matcher.Match(ctx, template)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}

	if result.Outcome != matcher.Matched {
		a.logger.InfoContext(ctx, "Authentication rejected")
		return nil, domain.ErrAuthFailed
	}

	id := uuid.New().String()
	issued := a.now()
	session := &domain.Session{
		Token:     a.signer.SignToken(id),
		AccountID: result.AccountID,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(a.ttl),
	}

	a.mu.Lock()
	a.sessions[id] = session
	a.mu.Unlock()

	a.logger.InfoContext(ctx, "Session issued",
		slog.String("account_id", result.AccountID),
		slog.Float64("score", result.Score),
		slog.Time("expires_at", session.ExpiresAt))

	cp := *session
	return &cp, nil
}

// Validate checks the token signature, the session's existence, and its
// expiry against the current time. Expired sessions are rejected even when
// the token itself is genuine.
func (a *Authenticator) Validate(token string) (string, error) {
	session, _, err := a.lookup(token)
	if err != nil {
		return "", err
	}
	return session.AccountID, nil
}

// Consume marks the session used for a mutating operation. Under the
// single-use policy the session is destroyed; under multi-use it stays valid
// until expiry or logout.
func (a *Authenticator) Consume(token string) error {
	session, id, err := a.lookup(token)
	if err != nil {
		return err
	}
	if !a.singleUse {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	session.Consumed = true
	delete(a.sessions, id)
	return nil
}

func (a *Authenticator) Logout(token string) error {
	_, id, err := a.lookup(token)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, id)
	return nil
}

func (a *Authenticator) lookup(token string) (*domain.Session, string, error) {
	id, ok := a.signer.VerifyToken(token)
	if !ok {
		return nil, "", domain.ErrSessionInvalid
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	session, exists := a.sessions[id]
	if !exists {
		return nil, "", domain.ErrSessionInvalid
	}
	if session.ExpiredAt(a.now()) {
		delete(a.sessions, id)
		return nil, "", domain.ErrSessionExpired
	}
	return session, id, nil
}
