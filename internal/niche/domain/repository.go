package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindByIDForUpdate row-locks the niche for the duration of the
	// surrounding transaction. Returns ErrNicheNotFound when absent.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Niche, error)
	UpdateRotationPosition(ctx context.Context, db *gorm.DB, id snowflake.ID, position int) error
	// ListActiveLevels returns active, non-deleted levels ordered by position.
	ListActiveLevels(ctx context.Context, db *gorm.DB, nicheID snowflake.ID) ([]CompetitionLevel, error)
	ListActiveFields(ctx context.Context, db *gorm.DB, nicheID snowflake.ID) ([]NicheField, error)
}
