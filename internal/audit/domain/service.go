package domain

import (
	"context"

	"gorm.io/gorm"
)

// Service appends audit events. Call sites treat it as fire-and-forget: a
// write failure is logged by the caller and never affects the outcome of the
// operation being audited.
type Service interface {
	AuditLog(ctx context.Context, actorType ActorType, actorID, action, targetType, targetID string, metadata map[string]any) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
}
