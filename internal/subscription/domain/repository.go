package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// ListCandidatesByNiche returns every active, filter-valid, non-deleted
	// subscription whose level is active and belongs to the niche.
	ListCandidatesByNiche(ctx context.Context, db *gorm.DB, nicheID snowflake.ID) ([]Candidate, error)
	// SelectForLevel orders the eligible subscriptions of one level by
	// last-served recency (never-served first, provider id tie-break) and
	// returns at most capacity picks, skipping excluded providers. Pure read.
	SelectForLevel(ctx context.Context, db *gorm.DB, levelID snowflake.ID, capacity int, excludeProviderIDs []snowflake.ID, eligibleSubscriptionIDs []snowflake.ID) ([]Pick, error)
	TouchLastServed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
}
