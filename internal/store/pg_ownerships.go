package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// GetOwnership retrieves an ownership by its identifier
func (s *gormStore) GetOwnership(ctx context.Context, id domain.OwnershipID) (*schema.Ownership, error) {
	var ownership schema.Ownership
	found, err := first(s.db.WithContext(ctx).Where("id = ?", id.String()), &ownership)
	if err != nil {
		return nil, wrapErr("get ownership", err)
	}
	if !found {
		return nil, nil
	}
	return &ownership, nil
}

// UpsertOwnership inserts the ownership or refreshes acquired_at and creator when not older
func (s *gormStore) UpsertOwnership(ctx context.Context, ownership *schema.Ownership) (bool, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"creator", "acquired_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "ownerships.acquired_at <= excluded.acquired_at"},
		}},
	}).Create(ownership)
	if result.Error != nil {
		return false, wrapErr("upsert ownership", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteOwnership deletes the ownership when it was acquired at or before ts
func (s *gormStore) DeleteOwnership(ctx context.Context, id domain.OwnershipID, ts time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("id = ? AND acquired_at <= ?", id.String(), ts).
		Delete(&schema.Ownership{})
	if result.Error != nil {
		return false, wrapErr("delete ownership", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteOwnershipsByItem deletes all ownerships of the item acquired at or before ts
func (s *gormStore) DeleteOwnershipsByItem(ctx context.Context, id domain.ItemID, ts time.Time) ([]schema.Ownership, error) {
	var deleted []schema.Ownership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidates []schema.Ownership
		if err := tx.Where("item_id = ? AND acquired_at <= ?", id.String(), ts).
			Order("id").
			Find(&candidates).Error; err != nil {
			return err
		}

		for _, o := range candidates {
			result := tx.Where("id = ? AND acquired_at <= ?", o.ID, ts).Delete(&schema.Ownership{})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				deleted = append(deleted, o)
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr("delete ownerships by item", err)
	}
	return deleted, nil
}

// FindOwnershipsByItem returns all live ownerships of the item
func (s *gormStore) FindOwnershipsByItem(ctx context.Context, id domain.ItemID) ([]schema.Ownership, error) {
	var ownerships []schema.Ownership
	err := s.db.WithContext(ctx).
		Where("item_id = ?", id.String()).
		Order("acquired_at DESC, id DESC").
		Find(&ownerships).Error
	if err != nil {
		return nil, wrapErr("find ownerships by item", err)
	}
	return ownerships, nil
}

// ListOwnershipsByItem lists ownerships of the item
func (s *gormStore) ListOwnershipsByItem(ctx context.Context, id domain.ItemID, q continuation.PageQuery) ([]schema.Ownership, error) {
	var ownerships []schema.Ownership
	err := s.db.WithContext(ctx).
		Where("item_id = ?", id.String()).
		Scopes(q.Scope("acquired_at", "id")).
		Find(&ownerships).Error
	if err != nil {
		return nil, wrapErr("list ownerships by item", err)
	}
	return ownerships, nil
}

// ListOwnershipsByOwner lists ownerships held by owner
func (s *gormStore) ListOwnershipsByOwner(ctx context.Context, owner string, q continuation.PageQuery) ([]schema.Ownership, error) {
	var ownerships []schema.Ownership
	err := s.db.WithContext(ctx).
		Where("owner = ?", owner).
		Scopes(q.Scope("acquired_at", "id")).
		Find(&ownerships).Error
	if err != nil {
		return nil, wrapErr("list ownerships by owner", err)
	}
	return ownerships, nil
}
