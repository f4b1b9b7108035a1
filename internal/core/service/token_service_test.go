package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/velomarket/marketplace-auth/internal/core/domain"
)

func tamper(credential string) string {
	b := []byte(credential)
	i := len(b) - 1
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("secret", WithTTL(time.Hour))

	credential, err := svc.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Verify(credential)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("expected subject user-123, got %q", claims.Subject)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		t.Fatalf("expiry %v not after issued-at %v", claims.ExpiresAt, claims.IssuedAt)
	}
}

func TestTokenService_Expired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	svc := NewTokenService("secret", WithTTL(time.Hour), WithClock(func() time.Time { return clock() }))

	credential, err := svc.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// One second past the embedded expiry: expired, not invalid.
	clock = func() time.Time { return now.Add(time.Hour + time.Second) }
	if _, err := svc.Verify(credential); !errors.Is(err, domain.ErrExpiredCredential) {
		t.Fatalf("expected ErrExpiredCredential, got %v", err)
	}
}

func TestTokenService_Tampered(t *testing.T) {
	svc := NewTokenService("secret", WithTTL(time.Hour))

	credential, err := svc.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.Verify(tamper(credential)); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", WithTTL(time.Hour))
	verifier := NewTokenService("secret-b", WithTTL(time.Hour))

	credential, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := verifier.Verify(credential); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestTokenService_Malformed(t *testing.T) {
	svc := NewTokenService("secret")

	for _, credential := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		if _, err := svc.Verify(credential); !errors.Is(err, domain.ErrInvalidCredential) {
			t.Fatalf("credential %q: expected ErrInvalidCredential, got %v", credential, err)
		}
	}
}

func TestTokenService_RejectsForeignAlgorithm(t *testing.T) {
	svc := NewTokenService("secret")

	claims := jwt.RegisteredClaims{
		Subject:   "user-123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Verify(signed); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential for HS512, got %v", err)
	}
}

func TestTokenService_RejectsMissingExpiry(t *testing.T) {
	svc := NewTokenService("secret")

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-123"}).
		SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Verify(signed); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential for missing exp, got %v", err)
	}
}

func TestTokenService_DecodeWithoutVerify(t *testing.T) {
	now := time.Now()
	issuer := NewTokenService("secret-a", WithTTL(time.Minute), WithClock(func() time.Time { return now.Add(-time.Hour) }))

	// Expired and signed with a secret this service does not hold: Decode
	// still reads the claims, Verify refuses them.
	credential, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	reader := NewTokenService("secret-b")
	claims, err := reader.Decode(credential)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("expected subject user-123, got %q", claims.Subject)
	}
	if !claims.ExpiresAt.Before(time.Now()) {
		t.Fatalf("expected embedded expiry in the past, got %v", claims.ExpiresAt)
	}

	if _, err := reader.Verify(credential); err == nil {
		t.Fatalf("verify should fail for foreign credential")
	}
}
