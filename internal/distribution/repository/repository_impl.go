package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	distributiondomain "github.com/smallbiznis/leadflow/internal/distribution/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() distributiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, assignment *distributiondomain.Assignment) error {
	if assignment == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO assignments (
			id, lead_id, provider_id, subscription_id, level_id, price_charged, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		assignment.ID,
		assignment.LeadID,
		assignment.ProviderID,
		assignment.SubscriptionID,
		assignment.LevelID,
		assignment.PriceCharged,
		assignment.CreatedAt,
	).Error
}

func (r *repo) ListByLead(ctx context.Context, db *gorm.DB, leadID snowflake.ID) ([]distributiondomain.Assignment, error) {
	var assignments []distributiondomain.Assignment
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM assignments WHERE lead_id = ? ORDER BY created_at ASC, id ASC`,
		leadID,
	).Scan(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}
