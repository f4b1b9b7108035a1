package ports

import (
	"context"

	"github.com/velomarket/marketplace-auth/internal/core/domain"
)

// AuditRepository persists auth audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// AuditRecorder accepts auth events for asynchronous recording.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}
