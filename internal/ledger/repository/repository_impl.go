package repository

import (
	"context"

	ledgerdomain "github.com/smallbiznis/leadflow/internal/ledger/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() ledgerdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *ledgerdomain.LedgerEntry) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO ledger_entries (
			id, provider_id, entry_type, amount, balance_after, lead_id, subscription_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ProviderID,
		entry.EntryType,
		entry.Amount,
		entry.BalanceAfter,
		entry.LeadID,
		entry.SubscriptionID,
		entry.CreatedAt,
	).Error
}
