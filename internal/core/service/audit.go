package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agileflow/user-service/internal/core/domain"
	"github.com/agileflow/user-service/internal/core/ports"
)

// auditTrail appends to the audit repository when one is configured.
// Failures are logged and never fail the calling operation.
type auditTrail struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

func (a auditTrail) record(ctx context.Context, kind domain.AuditKind, userID, email string) {
	if a.repo == nil {
		return
	}
	event := &domain.AuditEvent{
		Kind:      kind,
		UserID:    userID,
		Email:     email,
		Timestamp: time.Now().UTC(),
	}
	if err := a.repo.InsertEvent(ctx, event); err != nil {
		a.log.Warn().Err(err).Str("kind", string(kind)).Str("user_id", userID).Msg("failed to insert audit event")
	}
}
