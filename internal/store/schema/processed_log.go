package schema

import "time"

// ProcessedLog represents the processed_logs table - the idempotence set of applied log ids
type ProcessedLog struct {
	LogID       string    `gorm:"column:log_id;primaryKey;type:text"`
	ProcessedAt time.Time `gorm:"column:processed_at;not null"`
}

// TableName specifies the table name for the ProcessedLog model
func (ProcessedLog) TableName() string {
	return "processed_logs"
}
