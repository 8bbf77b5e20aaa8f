package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	leaddomain "github.com/smallbiznis/leadflow/internal/lead/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() leaddomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*leaddomain.Lead, error) {
	var lead leaddomain.Lead
	err := db.WithContext(ctx).Raw(
		`SELECT id, niche_id, status, field_values, distributed_at, distribution_attempts,
		 created_at, updated_at, deleted_at
		 FROM leads
		 WHERE id = ? AND deleted_at IS NULL`,
		id,
	).Scan(&lead).Error
	if err != nil {
		return nil, err
	}
	if lead.ID == 0 {
		return nil, leaddomain.ErrLeadNotFound
	}
	return &lead, nil
}

func (r *repo) MarkDistributed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE leads SET distributed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		at.UTC(),
		id,
	).Error
}

func (r *repo) IncrementAttempts(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE leads SET distribution_attempts = distribution_attempts + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	).Error
}

func (r *repo) ListAwaitingDistribution(ctx context.Context, db *gorm.DB, limit int) ([]leaddomain.Lead, error) {
	var leads []leaddomain.Lead
	err := db.WithContext(ctx).Raw(
		`SELECT id, niche_id, status, field_values, distributed_at, distribution_attempts,
		 created_at, updated_at, deleted_at
		 FROM leads
		 WHERE status = ? AND distributed_at IS NULL AND deleted_at IS NULL
		 ORDER BY created_at ASC
		 LIMIT ?`,
		leaddomain.LeadStatusApproved,
		limit,
	).Scan(&leads).Error
	if err != nil {
		return nil, err
	}
	return leads, nil
}
