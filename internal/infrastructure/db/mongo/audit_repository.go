package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/velomarket/marketplace-auth/internal/core/domain"
)

const collectionAuditEvents = "auth_audit_events"

type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuditEvents)}
}

// Insert appends one auth event to the audit trail.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, event)
	return err
}
