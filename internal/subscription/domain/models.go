// Package domain contains persistence models for provider subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// DeactivationReasonInsufficientBalance is written by the external status
// check when a provider's funds run dry.
const DeactivationReasonInsufficientBalance = "insufficient_balance"

// Subscription is a provider's enrollment in one competition level.
// FilterRules is a JSON array of eligibility rules; nil means no filter.
// Only active, filter-valid, non-deleted subscriptions participate in
// distribution. LastServedAt is written only by a successful charge.
type Subscription struct {
	ID                 snowflake.ID   `gorm:"primaryKey"`
	ProviderID         snowflake.ID   `gorm:"not null;index"`
	LevelID            snowflake.ID   `gorm:"not null;index"`
	Active             bool           `gorm:"not null;default:true"`
	DeactivationReason *string        `gorm:"type:text"`
	FilterRules        datatypes.JSON `gorm:"type:jsonb"`
	FiltersValid       bool           `gorm:"not null;default:true"`
	LastServedAt       *time.Time     `gorm:""`
	CreatedAt          time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt          *time.Time     `gorm:"index"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// Candidate is the slice of a subscription the eligibility resolver needs.
type Candidate struct {
	SubscriptionID snowflake.ID
	ProviderID     snowflake.ID
	LevelID        snowflake.ID
	FilterRules    datatypes.JSON
}

// Pick is one fairness-selector result: a provider to serve and the
// subscription that earned the pick.
type Pick struct {
	ProviderID     snowflake.ID
	SubscriptionID snowflake.ID
}
