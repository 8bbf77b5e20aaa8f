// Package domain defines the write-only audit trail consumed by the engine.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorType identifies who triggered an audited action.
type ActorType string

const (
	ActorTypeSystem ActorType = "system"
	ActorTypeUser   ActorType = "user"
)

// AuditLog is one structured audit event.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	ActorType  ActorType         `gorm:"type:text;not null"`
	ActorID    string            `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   string            `gorm:"type:text;index"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

var (
	ErrInvalidAction = errors.New("invalid_action")
)
