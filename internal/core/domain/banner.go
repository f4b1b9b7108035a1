package domain

import "time"

// Banner is a promotional entry on the storefront. Inactive banners are only
// visible to admins; the public listing works with or without a credential.
type Banner struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Title     string    `json:"title" bson:"title"`
	ImageURL  string    `json:"image_url" bson:"image_url"`
	LinkURL   string    `json:"link_url,omitempty" bson:"link_url,omitempty"`
	IsActive  bool      `json:"is_active" bson:"is_active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
