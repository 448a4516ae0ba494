package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if hash == "password123" {
		t.Fatalf("hash must not equal the plain password")
	}

	if err := h.Check(hash, "password123"); err != nil {
		t.Fatalf("Check with right password: %v", err)
	}

	if err := h.Check(hash, "wrong-password"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	if got := NewHasher(99).cost; got != bcrypt.DefaultCost {
		t.Fatalf("got cost %d, want default %d", got, bcrypt.DefaultCost)
	}
}
