package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	providerdomain "github.com/smallbiznis/leadflow/internal/provider/domain"
	"github.com/smallbiznis/leadflow/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() providerdomain.Repository {
	return &repo{}
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*providerdomain.Provider, error) {
	var provider providerdomain.Provider
	err := tx.WithContext(ctx).Raw(
		`SELECT id, name, email, balance, created_at, updated_at
		 FROM providers
		 WHERE id = ?`+db.LockingClause(tx),
		id,
	).Scan(&provider).Error
	if err != nil {
		return nil, err
	}
	if provider.ID == 0 {
		return nil, providerdomain.ErrProviderNotFound
	}
	return &provider, nil
}

func (r *repo) UpdateBalance(ctx context.Context, tx *gorm.DB, id snowflake.ID, balance int64) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE providers SET balance = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		balance,
		id,
	).Error
}
