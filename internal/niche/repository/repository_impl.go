package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	nichedomain "github.com/smallbiznis/leadflow/internal/niche/domain"
	"github.com/smallbiznis/leadflow/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() nichedomain.Repository {
	return &repo{}
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*nichedomain.Niche, error) {
	var niche nichedomain.Niche
	err := tx.WithContext(ctx).Raw(
		`SELECT id, name, rotation_position, active, created_at, updated_at, deleted_at
		 FROM niches
		 WHERE id = ? AND deleted_at IS NULL`+db.LockingClause(tx),
		id,
	).Scan(&niche).Error
	if err != nil {
		return nil, err
	}
	if niche.ID == 0 {
		return nil, nichedomain.ErrNicheNotFound
	}
	return &niche, nil
}

func (r *repo) UpdateRotationPosition(ctx context.Context, tx *gorm.DB, id snowflake.ID, position int) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE niches SET rotation_position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		position,
		id,
	).Error
}

func (r *repo) ListActiveLevels(ctx context.Context, tx *gorm.DB, nicheID snowflake.ID) ([]nichedomain.CompetitionLevel, error) {
	var levels []nichedomain.CompetitionLevel
	err := tx.WithContext(ctx).Raw(
		`SELECT id, niche_id, position, max_recipients, price_per_lead, active, created_at, updated_at, deleted_at
		 FROM competition_levels
		 WHERE niche_id = ? AND active = ? AND deleted_at IS NULL
		 ORDER BY position ASC`,
		nicheID,
		true,
	).Scan(&levels).Error
	if err != nil {
		return nil, err
	}
	return levels, nil
}

func (r *repo) ListActiveFields(ctx context.Context, tx *gorm.DB, nicheID snowflake.ID) ([]nichedomain.NicheField, error) {
	var fields []nichedomain.NicheField
	err := tx.WithContext(ctx).Raw(
		`SELECT id, niche_id, field_key, label, field_type, required, active, created_at
		 FROM niche_fields
		 WHERE niche_id = ? AND active = ?
		 ORDER BY field_key ASC`,
		nicheID,
		true,
	).Scan(&fields).Error
	if err != nil {
		return nil, err
	}
	return fields, nil
}
