package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/smallbiznis/leadflow/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) ListCandidatesByNiche(ctx context.Context, db *gorm.DB, nicheID snowflake.ID) ([]subscriptiondomain.Candidate, error) {
	var candidates []subscriptiondomain.Candidate
	err := db.WithContext(ctx).Raw(
		`SELECT s.id AS subscription_id, s.provider_id, s.level_id, s.filter_rules
		 FROM subscriptions s
		 JOIN competition_levels l ON l.id = s.level_id
		 WHERE l.niche_id = ?
		   AND l.active = ? AND l.deleted_at IS NULL
		   AND s.active = ? AND s.filters_valid = ? AND s.deleted_at IS NULL`,
		nicheID,
		true,
		true,
		true,
	).Scan(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *repo) SelectForLevel(ctx context.Context, db *gorm.DB, levelID snowflake.ID, capacity int, excludeProviderIDs []snowflake.ID, eligibleSubscriptionIDs []snowflake.ID) ([]subscriptiondomain.Pick, error) {
	if capacity <= 0 || len(eligibleSubscriptionIDs) == 0 {
		return nil, nil
	}

	// (last_served_at IS NOT NULL) sorts NULLs first on every supported
	// dialect; postgres NULLS FIRST is not portable.
	query := `SELECT provider_id, id AS subscription_id
	 FROM subscriptions
	 WHERE level_id = ? AND active = ? AND deleted_at IS NULL
	   AND id IN ?`
	args := []any{levelID, true, eligibleSubscriptionIDs}

	if len(excludeProviderIDs) > 0 {
		query += ` AND provider_id NOT IN ?`
		args = append(args, excludeProviderIDs)
	}

	query += `
	 ORDER BY (last_served_at IS NOT NULL), last_served_at ASC, provider_id ASC
	 LIMIT ?`
	args = append(args, capacity)

	var picks []subscriptiondomain.Pick
	err := db.WithContext(ctx).Raw(query, args...).Scan(&picks).Error
	if err != nil {
		return nil, err
	}
	return picks, nil
}

func (r *repo) TouchLastServed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET last_served_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		at.UTC(),
		id,
	).Error
}
