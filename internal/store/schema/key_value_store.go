package schema

import "time"

// KeyValueStore stores named checkpoints of long-running background passes
type KeyValueStore struct {
	Key       string    `gorm:"column:key;primaryKey;type:text"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (KeyValueStore) TableName() string {
	return "key_value_store"
}
