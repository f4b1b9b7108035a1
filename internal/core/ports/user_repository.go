package ports

import (
	"context"

	"github.com/velomarket/marketplace-auth/internal/core/domain"
)

// UserRepository defines the persistence interface for user accounts.
// The auth core reads users on every protected request and never caches them,
// so a deactivation is visible on the very next call.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	SetActive(ctx context.Context, id string, active bool) error
}
