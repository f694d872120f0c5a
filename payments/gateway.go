package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
)

// Verifier checks that a payment callback really came from the gateway.
type Verifier interface {
	Verify(payload []byte, signature string) error
}

var ErrBadSignature = errors.New("signature mismatch")

// HMACVerifier implements Verifier with an HMAC-SHA256 shared secret.
type HMACVerifier struct {
	Secret []byte
}

func NewVerifierFromEnv() *HMACVerifier {
	secret := os.Getenv("PAYMENT_WEBHOOK_SECRET")
	if secret == "" {
		secret = "boutique-webhook-secret"
	}
	return &HMACVerifier{Secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(payload []byte, signature string) error {
	mac := hmac.New(sha256.New, v.Secret)
	mac.Write(payload)
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

// Sign is the counterpart used by tests and local tooling.
func (v *HMACVerifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.Secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
