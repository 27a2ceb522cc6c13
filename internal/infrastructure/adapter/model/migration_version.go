package model

import "time"

// SchemaVersion is one row per applied schema migration; the newest row by
// applied_at is the version the database is at. Rows are append-only, a
// rollback is recorded as a new row, never by deleting one.
type SchemaVersion struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	Version     string    `gorm:"type:varchar(16);not null"`
	Description string    `gorm:"type:text"`
	AppliedAt   time.Time `gorm:"not null;index"`
}

// TableName specifies the table name for the schema version model
func (SchemaVersion) TableName() string {
	return "schema_versions"
}
