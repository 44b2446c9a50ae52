package signature

import (
	"encoding/hex"
	"errors"
	"testing"
)

func TestVerify(t *testing.T) {
	secret := []byte("a1b2c3d4e5")
	body := []byte(`{"repository":{"full_name":"org/repo","ssh_url":"git@h:org/repo.git"}}`)
	sig := Compute(secret, body)

	if err := Verify(secret, body, sig); err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}

	if err := Verify(secret, body, Compute([]byte("invalid-secret"), body)); !errors.Is(err, ErrMismatch) {
		t.Errorf("Verify() expected mismatch for wrong secret got: %v", err)
	}

	if err := Verify(secret, []byte{}, ""); !errors.Is(err, ErrMismatch) {
		t.Errorf("Verify() expected mismatch for empty signature got: %v", err)
	}

	if err := Verify(nil, body, sig); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("Verify() expected empty secret error got: %v", err)
	}

	if err := Verify(secret, body, "not-hex"); err == nil || errors.Is(err, ErrMismatch) {
		t.Errorf("Verify() expected hex decode error got: %v", err)
	}

	if err := Verify(secret, body, "sha256="+sig); err == nil {
		t.Errorf("Verify() expected error for prefixed signature")
	}
}

func TestVerify_bitFlips(t *testing.T) {
	secret := []byte("a1b2c3d4e5")
	body := []byte(`{"repository":{"full_name":"org/repo"}}`)
	sig := Compute(secret, body)

	// flipping any single bit of the body must fail verification
	for i := range body {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), body...)
			flipped[i] ^= 1 << bit
			if err := Verify(secret, flipped, sig); !errors.Is(err, ErrMismatch) {
				t.Fatalf("body byte %d bit %d: expected mismatch got: %v", i, bit, err)
			}
		}
	}

	// flipping any single bit of the signature value must fail verification
	raw, err := hex.DecodeString(sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), raw...)
			flipped[i] ^= 1 << bit
			if err := Verify(secret, body, hex.EncodeToString(flipped)); !errors.Is(err, ErrMismatch) {
				t.Fatalf("signature byte %d bit %d: expected mismatch got: %v", i, bit, err)
			}
		}
	}
}
