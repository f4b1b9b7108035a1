package ports

import (
	"context"

	"github.com/velomarket/marketplace-auth/internal/core/domain"
)

// RegisterInput carries the fields accepted at registration. Role defaults
// to customer when empty.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      domain.Role
}

// AuthService issues credentials for verified identities.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Refresh exchanges an already-resolved identity for a fresh credential
	// without re-entry of the password.
	Refresh(ctx context.Context, user *domain.User) (string, error)
}

// IdentityResolver recovers the user behind a credential. It runs on every
// protected request and is never cached across requests.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*domain.User, error)
}
