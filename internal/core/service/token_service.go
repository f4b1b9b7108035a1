package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/velomarket/marketplace-auth/internal/core/domain"
	"github.com/velomarket/marketplace-auth/internal/core/ports"
)

// DefaultTokenTTL is the credential lifetime applied when none is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenService signs and verifies HS256 credentials carrying the subject id,
// issued-at, and expiry. It holds the single server secret and performs no I/O.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithTTL overrides the credential time-to-live.
func WithTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects a time source. Used by tests to cross the expiry boundary.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewTokenService(secret string, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a new credential for the subject.
func (s *TokenService) Issue(subjectID string) (string, error) {
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature and expiry, failing closed on anything unexpected.
// An elapsed TTL is reported as domain.ErrExpiredCredential, every other
// failure as domain.ErrInvalidCredential.
func (s *TokenService) Verify(credential string) (*ports.CredentialClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(credential, claims,
		func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredCredential
		}
		return nil, domain.ErrInvalidCredential
	}
	if !token.Valid || claims.Subject == "" {
		return nil, domain.ErrInvalidCredential
	}
	return credentialClaims(claims), nil
}

// Decode reads the claims without verifying the signature. It exists for
// local expiry inspection only and must never gate authorization.
func (s *TokenService) Decode(credential string) (*ports.CredentialClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return nil, domain.ErrInvalidCredential
	}
	return credentialClaims(claims), nil
}

func credentialClaims(c *jwt.RegisteredClaims) *ports.CredentialClaims {
	out := &ports.CredentialClaims{Subject: c.Subject}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
