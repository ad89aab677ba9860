package utils

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == "secret" {
		t.Fatal("password stored in clear")
	}
	if !h.CheckPasswordHash("secret", hash) {
		t.Fatal("expected password to match")
	}
	if h.CheckPasswordHash("wrong", hash) {
		t.Fatal("expected password mismatch")
	}
}

func TestHasherClampsCost(t *testing.T) {
	if h := NewPasswordHasher(99); h.cost != bcrypt.DefaultCost {
		t.Fatalf("cost not clamped: %d", h.cost)
	}
}

func TestOpaqueToken(t *testing.T) {
	a, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	b, _ := NewOpaqueToken()
	if a == b {
		t.Fatal("tokens should differ")
	}
	if HashToken(a) != HashToken(a) || HashToken(a) == HashToken(b) {
		t.Fatal("hash must be deterministic and distinct")
	}
}

func TestHashPasswordRejectsLongInput(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	if _, err := h.HashPassword(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Fatalf("72 bytes should hash: %v", err)
	}
	// 37 two-byte runes: 74 bytes.
	_, err := h.HashPassword(strings.Repeat("é", 37))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("err = %v, want ErrPasswordTooLong", err)
	}
}
