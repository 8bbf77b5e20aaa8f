// Package domain contains the persistence model for incoming leads.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// LeadStatus represents lifecycle states for a lead.
type LeadStatus string

const (
	LeadStatusPending  LeadStatus = "pending"
	LeadStatusApproved LeadStatus = "approved"
	LeadStatusRejected LeadStatus = "rejected"
)

// Lead is one demand record submitted for a niche. FieldValues holds the
// submitted form data keyed by the niche's field keys.
type Lead struct {
	ID                   snowflake.ID      `gorm:"primaryKey"`
	NicheID              snowflake.ID      `gorm:"not null;index"`
	Status               LeadStatus        `gorm:"type:text;not null"`
	FieldValues          datatypes.JSONMap `gorm:"type:jsonb"`
	DistributedAt        *time.Time        `gorm:""`
	DistributionAttempts int               `gorm:"not null;default:0"`
	CreatedAt            time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt            time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt            *time.Time        `gorm:"index"`
}

// TableName sets the database table name.
func (Lead) TableName() string { return "leads" }

var (
	ErrLeadNotFound    = errors.New("lead_not_found")
	ErrLeadNotApproved = errors.New("lead_not_approved")
)
