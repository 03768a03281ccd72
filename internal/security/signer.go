package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrBadSignature = errors.New("signature mismatch")

// WebhookSigner authenticates provider callbacks with an HMAC-SHA256
// shared secret over the raw request body.
type WebhookSigner struct {
	secret []byte
}

func NewWebhookSigner(secret string) (*WebhookSigner, error) {
	if secret == "" {
		return nil, errors.New("webhook secret required")
	}
	return &WebhookSigner{secret: []byte(secret)}, nil
}

// Sign returns the hex-encoded MAC for body.
func (s *WebhookSigner) Sign(body []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a hex-encoded MAC in constant time.
func (s *WebhookSigner) Verify(body []byte, signature string) error {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}
