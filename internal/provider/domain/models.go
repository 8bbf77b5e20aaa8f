// Package domain contains the provider account model and its funds balance.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Provider is a paying subscriber. Balance is the cached funds value in minor
// units; it is debited only inside the assignment+charge transaction and
// credited only by external deposit flows.
type Provider struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	Email     string       `gorm:"type:text;not null"`
	Balance   int64        `gorm:"not null;default:0"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Provider) TableName() string { return "providers" }

var (
	ErrProviderNotFound = errors.New("provider_not_found")
)
