package domain

import "time"

// TemplateSize is the fixed length in bytes of an enrolled feature vector.
// The sensor collaborator is responsible for producing vectors of this size;
// the engine only compares them.
const TemplateSize = 64

// BiometricTemplate is an opaque fixed-length feature vector owned by exactly
// one account. Templates are immutable once stored; re-enrollment supersedes
// the old template, it never merges with it.
type BiometricTemplate struct {
	AccountID  string    `json:"account_id"`
	Vector     []byte    `json:"vector"`
	EnrolledAt time.Time `json:"enrolled_at"`
}
