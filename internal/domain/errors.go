package domain

import "errors"

// Business outcomes, not transient faults: none of these are retried, they
// are surfaced verbatim to the caller.
var (
	// ErrAuthFailed covers both "no match" and "ambiguous match". Callers
	// never learn which, so a probe cannot tell how close it came.
	ErrAuthFailed = errors.New("authentication failed")

	ErrSessionExpired = errors.New("session expired")
	ErrSessionInvalid = errors.New("session invalid")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrLimitExceeded     = errors.New("transaction limit exceeded")
	ErrAccountInactive   = errors.New("account inactive")
)
