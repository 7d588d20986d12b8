package ports

import (
	"context"

	"github.com/agileflow/user-service/internal/core/domain"
)

// AuditRepository appends entries to the account audit trail.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuditEvent) error
}
