// Package domain contains the distribution engine's core types: the
// assignment record and the per-run result surfaced to callers.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Assignment is the permanent record that a provider received a lead. The
// unique (lead_id, provider_id) index is the last line of defense against a
// provider being charged twice for the same lead.
type Assignment struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	LeadID         snowflake.ID `gorm:"not null;uniqueIndex:ux_assignments_lead_provider,priority:1"`
	ProviderID     snowflake.ID `gorm:"not null;uniqueIndex:ux_assignments_lead_provider,priority:2"`
	SubscriptionID snowflake.ID `gorm:"not null;index"`
	LevelID        snowflake.ID `gorm:"not null;index"`
	PriceCharged   int64        `gorm:"not null"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Assignment) TableName() string { return "assignments" }

// Status summarizes how a distribution run ended.
type Status string

const (
	// StatusSuccess: at least one assignment and nothing was skipped.
	StatusSuccess Status = "success"
	// StatusPartial: the run completed but some eligible provider was skipped.
	StatusPartial Status = "partial"
	// StatusNoEligible: no subscription passed eligibility.
	StatusNoEligible Status = "no_eligible"
	// StatusFailed: the run aborted before any provider could be considered.
	StatusFailed Status = "failed"
)

// SkipReason explains why an otherwise-selected provider was not assigned.
type SkipReason string

const (
	SkipInsufficientBalance SkipReason = "insufficient_balance"
	SkipDuplicate           SkipReason = "duplicate"
	SkipEligibilityError    SkipReason = "eligibility_error"
)

// AssignmentDetail is one successful assignment within a run result.
type AssignmentDetail struct {
	AssignmentID   snowflake.ID
	ProviderID     snowflake.ID
	SubscriptionID snowflake.ID
	LevelID        snowflake.ID
	PriceCharged   int64
}

// Skip records one provider the run considered but did not assign.
type Skip struct {
	ProviderID     snowflake.ID
	SubscriptionID snowflake.ID
	Reason         SkipReason
	Detail         string
}

// Result is the outcome of one distribution run.
type Result struct {
	LeadID      snowflake.ID
	Status      Status
	Assignments []AssignmentDetail
	Skipped     []Skip
	DurationMs  int64
}

// TriggeredBy identifies who or what started a distribution run.
type TriggeredBy struct {
	ActorID   string
	ActorRole string
}

var (
	// ErrNoActiveLevels: the lead's niche has no active competition levels.
	ErrNoActiveLevels = errors.New("no_active_levels")
	// ErrInsufficientBalance: the provider cannot afford the level price.
	ErrInsufficientBalance = errors.New("insufficient_balance")
	// ErrDuplicateAssignment: the provider already holds this lead.
	ErrDuplicateAssignment = errors.New("duplicate_assignment")
)
