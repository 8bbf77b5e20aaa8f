package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindByIDForUpdate row-locks the provider's funds row for the duration
	// of the surrounding transaction. Returns ErrProviderNotFound when absent.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Provider, error)
	UpdateBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, balance int64) error
}
