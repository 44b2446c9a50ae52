// Package signature authenticates webhook deliveries. The sender signs the
// raw request body with HMAC-SHA256 keyed with the shared secret and sends
// the hex encoded MAC in a request header.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrEmptySecret = errors.New("secret is empty")
	ErrMismatch    = errors.New("signature mismatch")
)

// Compute returns hex encoded HMAC-SHA256 of the body keyed with secret
func Compute(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks given hex encoded signature against the MAC of the body.
// comparison is done in constant time.
func Verify(secret, body []byte, signature string) error {
	if len(secret) == 0 {
		return ErrEmptySecret
	}

	claimed, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("invalid hex signature: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)

	if !hmac.Equal(mac.Sum(nil), claimed) {
		return ErrMismatch
	}
	return nil
}
