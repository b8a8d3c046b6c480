package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"travelstay/internal/domain/shared/fault"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := h.Compare(hash, "correct horse"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := h.Compare(hash, "battery staple"); !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := h.Compare("not-a-hash", "correct horse"); err == nil || errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		t.Fatalf("expected corrupt hash error, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("x", 73)); !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("expected validation error for long password, got %v", err)
	}
}

func TestJWTIssuerRoundTrip(t *testing.T) {
	t.Parallel()
	issuer, err := NewJWTIssuer("s3cret", "travelstay", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	now := time.Now()
	token, expiresAt, err := issuer.Issue("user-1", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.Equal(now.UTC().Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}
	subject, err := issuer.Parse(token)
	if err != nil || subject != "user-1" {
		t.Fatalf("parse: %q %v", subject, err)
	}

	other, _ := NewJWTIssuer("different", "travelstay", time.Hour)
	if _, err := other.Parse(token); err == nil {
		t.Fatalf("token signed with another key accepted")
	}
	expired, _, _ := issuer.Issue("user-1", now.Add(-2*time.Hour))
	if _, err := issuer.Parse(expired); err == nil {
		t.Fatalf("expired token accepted")
	}
	if _, err := NewJWTIssuer(" ", "", 0); err == nil {
		t.Fatalf("empty secret accepted")
	}
}
