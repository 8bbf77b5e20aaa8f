package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Insert appends one entry. Callers run it inside the charge transaction.
	Insert(ctx context.Context, db *gorm.DB, entry *LedgerEntry) error
}
