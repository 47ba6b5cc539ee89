package domain

import "time"

// Session is the short-lived proof of a successful biometric match, bound to
// one account. Expiry is checked against the current time on every
// validation, not only at creation.
type Session struct {
	Token     string    `json:"token"`
	AccountID string    `json:"account_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"-"`
}

func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
