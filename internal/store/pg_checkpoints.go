package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// GetCheckpoint retrieves a checkpoint, "" if it doesn't exist
func (s *gormStore) GetCheckpoint(ctx context.Context, key string) (string, error) {
	var kv schema.KeyValueStore
	found, err := first(s.db.WithContext(ctx).Where("key = ?", key), &kv)
	if err != nil {
		return "", wrapErr("get checkpoint", err)
	}
	if !found {
		return "", nil
	}
	return kv.Value, nil
}

// SetCheckpoint creates or overwrites a checkpoint
func (s *gormStore) SetCheckpoint(ctx context.Context, key, value string, at time.Time) error {
	kv := schema.KeyValueStore{Key: key, Value: value, UpdatedAt: at}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&kv).Error
	if err != nil {
		return wrapErr("set checkpoint", err)
	}
	return nil
}

// DeleteCheckpoint removes a checkpoint, a missing one is not an error
func (s *gormStore) DeleteCheckpoint(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&schema.KeyValueStore{}).Error
	if err != nil {
		return wrapErr("delete checkpoint", err)
	}
	return nil
}
