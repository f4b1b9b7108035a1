package ports

import (
	"context"

	"github.com/velomarket/marketplace-auth/internal/core/domain"
)

// BannerRepository defines persistence for storefront banners.
type BannerRepository interface {
	// List returns banners. When includeInactive is false only active banners
	// are returned; the admin view passes true.
	List(ctx context.Context, includeInactive bool) ([]domain.Banner, error)
	Create(ctx context.Context, banner *domain.Banner) (*domain.Banner, error)
}
