package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/velomarket/marketplace-auth/internal/core/domain"
)

const collectionBanners = "banners"

type BannerRepository struct {
	col *mongo.Collection
}

func NewBannerRepository(db *mongo.Database) *BannerRepository {
	return &BannerRepository{col: db.Collection(collectionBanners)}
}

// List returns banners, newest first. Inactive banners are only included
// when requested (admin view).
func (r *BannerRepository) List(ctx context.Context, includeInactive bool) ([]domain.Banner, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if !includeInactive {
		filter["is_active"] = true
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	banners := make([]domain.Banner, 0)
	if err := cur.All(ctx, &banners); err != nil {
		return nil, err
	}
	return banners, nil
}

// Create inserts a new banner document.
func (r *BannerRepository) Create(ctx context.Context, banner *domain.Banner) (*domain.Banner, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, banner); err != nil {
		return nil, err
	}
	return banner, nil
}
