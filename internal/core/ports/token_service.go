package ports

import "time"

// CredentialClaims are the contents of a credential after verification or
// local decoding.
type CredentialClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService signs and checks bearer credentials. Pure computation, no I/O.
type TokenService interface {
	// Issue signs a new credential for the subject with the configured TTL.
	Issue(subjectID string) (string, error)
	// Verify checks the signature and expiry. Fails closed: any signature
	// mismatch or malformed structure yields domain.ErrInvalidCredential,
	// an elapsed TTL yields domain.ErrExpiredCredential.
	Verify(credential string) (*CredentialClaims, error)
	// Decode reads the claims without checking the signature. Only for local
	// expiry inspection on the client side; never trust it for authorization.
	Decode(credential string) (*CredentialClaims, error)
}
