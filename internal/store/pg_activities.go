package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// IsLogSeen reports whether the log id is in the processed set
func (s *gormStore) IsLogSeen(ctx context.Context, logID domain.LogID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.ProcessedLog{}).
		Where("log_id = ?", string(logID)).
		Count(&count).Error
	if err != nil {
		return false, wrapErr("check processed log", err)
	}
	return count > 0, nil
}

// MarkLogSeen adds the log id to the processed set
func (s *gormStore) MarkLogSeen(ctx context.Context, logID domain.LogID, at time.Time) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "log_id"}},
		DoNothing: true,
	}).Create(&schema.ProcessedLog{LogID: string(logID), ProcessedAt: at}).Error
	if err != nil {
		return wrapErr("mark processed log", err)
	}
	return nil
}

// SaveActivity inserts the activity unless its log id was already recorded
func (s *gormStore) SaveActivity(ctx context.Context, history *schema.ItemHistory) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "log_id"}},
		DoNothing: true,
	}).Create(history).Error
	if err != nil {
		return wrapErr("save activity", err)
	}
	return nil
}

// ListActivities lists activities matching filter
func (s *gormStore) ListActivities(ctx context.Context, filter ActivityFilter, q continuation.PageQuery) ([]schema.ItemHistory, error) {
	query := s.db.WithContext(ctx)
	if filter.ItemID != "" {
		query = query.Where("item_id = ?", filter.ItemID)
	}
	if filter.User != "" {
		query = query.Where("(from_address = ? OR to_address = ? OR maker = ?)", filter.User, filter.User, filter.User)
	}
	if len(filter.Types) > 0 {
		query = query.Where("type IN ?", filter.Types)
	}

	var activities []schema.ItemHistory
	if err := query.Scopes(q.Scope("block_time", "log_id")).Find(&activities).Error; err != nil {
		return nil, wrapErr("list activities", err)
	}
	return activities, nil
}
