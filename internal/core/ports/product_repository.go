package ports

import (
	"context"

	"github.com/velomarket/marketplace-auth/internal/core/domain"
)

// ProductRepository defines persistence for products, the owned resource
// behind the ownership predicates.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}
