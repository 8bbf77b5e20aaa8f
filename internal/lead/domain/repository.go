package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindByID returns ErrLeadNotFound for missing or soft-deleted leads.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Lead, error)
	MarkDistributed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	IncrementAttempts(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	// ListAwaitingDistribution returns approved, undistributed leads ordered
	// oldest first.
	ListAwaitingDistribution(ctx context.Context, db *gorm.DB, limit int) ([]Lead, error)
}
