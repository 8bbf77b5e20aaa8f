// Package domain contains the append-only ledger model for provider funds.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// EntryType classifies balance-affecting events.
type EntryType string

const (
	// EntryTypeLeadPurchase is the debit written when a provider is charged
	// for a lead assignment.
	EntryTypeLeadPurchase EntryType = "lead_purchase"
)

// LedgerEntry records one balance-affecting event. Entries are immutable:
// once written they are never updated or deleted. BalanceAfter snapshots the
// provider balance resulting from the event, so the ledger replays to the
// cached balance.
type LedgerEntry struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	ProviderID     snowflake.ID `gorm:"not null;index"`
	EntryType      EntryType    `gorm:"type:text;not null"`
	Amount         int64        `gorm:"not null"`
	BalanceAfter   int64        `gorm:"not null"`
	LeadID         snowflake.ID `gorm:"not null;index"`
	SubscriptionID snowflake.ID `gorm:"not null;index"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }
