// Package domain contains persistence models for niches and their competition levels.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Niche groups the competition levels of one market segment and owns the
// rotation cursor that decides which level gets first pick on the next
// distribution.
type Niche struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	Name             string       `gorm:"type:text;not null"`
	RotationPosition int          `gorm:"not null;default:1"`
	Active           bool         `gorm:"not null;default:true"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt        *time.Time   `gorm:"index"`
}

// TableName sets the database table name.
func (Niche) TableName() string { return "niches" }

// CompetitionLevel is one pricing tier within a niche.
type CompetitionLevel struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	NicheID       snowflake.ID `gorm:"not null;index"`
	Position      int          `gorm:"not null"`
	MaxRecipients int          `gorm:"not null"`
	PricePerLead  int64        `gorm:"not null"`
	Active        bool         `gorm:"not null;default:true"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt     *time.Time   `gorm:"index"`
}

// TableName sets the database table name.
func (CompetitionLevel) TableName() string { return "competition_levels" }

// FieldType enumerates the value shapes a niche field can take.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeNumber      FieldType = "number"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiselect"
)

// NicheField is one entry of a niche's submission schema. Filter rules may
// only reference keys present here.
type NicheField struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	NicheID   snowflake.ID `gorm:"not null;index"`
	Key       string       `gorm:"column:field_key;type:text;not null"`
	Label     string       `gorm:"type:text;not null"`
	FieldType FieldType    `gorm:"type:text;not null"`
	Required  bool         `gorm:"not null;default:false"`
	Active    bool         `gorm:"not null;default:true"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (NicheField) TableName() string { return "niche_fields" }

var (
	ErrNicheNotFound = errors.New("niche_not_found")
)
