package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service runs lead distribution end to end. Distribute is safe to call
// concurrently for different leads and idempotent per provider for the same
// lead: re-running never double-charges.
type Service interface {
	Distribute(ctx context.Context, leadID snowflake.ID, trigger TriggeredBy) (*Result, error)
}

// Repository persists assignments.
type Repository interface {
	// Insert writes one assignment. Callers detect the unique-index violation
	// to map it onto ErrDuplicateAssignment.
	Insert(ctx context.Context, db *gorm.DB, assignment *Assignment) error
	ListByLead(ctx context.Context, db *gorm.DB, leadID snowflake.ID) ([]Assignment, error)
}
