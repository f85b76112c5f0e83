package ports

import (
	"context"

	"github.com/aurora-ai/aurora-api/internal/core/domain"
)

// AuditRecorder accepts audit events for asynchronous persistence. Record
// must never block request handling for long; implementations buffer.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}

// AuditStore persists audit events and serves recent history for the admin
// surface.
type AuditStore interface {
	Store(ctx context.Context, event domain.AuditEvent) error
	Recent(ctx context.Context, limit int64) ([]domain.AuditEvent, error)
}
