package session

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned by API implementations when the server rejects
// the credential or the login attempt (HTTP 401).
var ErrUnauthorized = errors.New("session: unauthorized")

// Credentials is the result of a successful login.
type Credentials struct {
	Token    string
	Identity Identity
}

// API is the server surface the session manager depends on.
type API interface {
	Login(ctx context.Context, email, password string) (*Credentials, error)
	// Refresh exchanges a valid credential for a fresh one.
	Refresh(ctx context.Context, credential string) (string, error)
	// CurrentUser resolves the identity behind a credential.
	CurrentUser(ctx context.Context, credential string) (*Identity, error)
	// Logout notifies the server. Best-effort; the session is cleared
	// locally regardless of the outcome.
	Logout(ctx context.Context, credential string) error
}
