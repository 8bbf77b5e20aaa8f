package db

import "gorm.io/gorm"

// LockingClause returns the row-lock suffix for SELECT statements.
// SQLite has a single writer and rejects FOR UPDATE, so the clause is
// omitted there; the engine's write serialization covers the same races.
func LockingClause(tx *gorm.DB) string {
	if tx == nil || tx.Dialector == nil {
		return ""
	}
	if tx.Dialector.Name() == "sqlite" {
		return ""
	}
	return " FOR UPDATE"
}
