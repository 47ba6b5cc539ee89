package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Signer produces and verifies HMAC-SHA256 signatures over session token
// identifiers, so a token presented to the engine is rejected without a
// store lookup when it was not issued here.
type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	signature := mac.Sum(nil)
	return hex.EncodeToString(signature)
}

func (s *Signer) Verify(data []byte, signature string) (bool, error) {
	expectedSignature := s.Sign(data)

	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		s.logger.Warn("Signature verification failed")
		return false, fmt.Errorf("invalid signature")
	}

	return true, nil
}

// SignToken returns "<id>.<signature>".
func (s *Signer) SignToken(id string) string {
	return id + "." + s.Sign([]byte(id))
}

// VerifyToken splits a signed token and checks its signature, returning the
// embedded identifier.
func (s *Signer) VerifyToken(token string) (string, bool) {
	id, signature, found := strings.Cut(token, ".")
	if !found {
		return "", false
	}
	if ok, err := s.Verify([]byte(id), signature); !ok || err != nil {
		return "", false
	}
	return id, true
}
