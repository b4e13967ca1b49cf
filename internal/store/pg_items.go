package store

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// itemsNotNewer is the monotonic guard of every conflicting item write
var itemsNotNewer = clause.Where{Exprs: []clause.Expression{
	clause.Expr{SQL: "items.updated_at <= excluded.updated_at"},
}}

// GetItem retrieves an item by its identifier
func (s *gormStore) GetItem(ctx context.Context, id domain.ItemID) (*schema.Item, error) {
	var item schema.Item
	found, err := first(s.db.WithContext(ctx).Where("id = ?", id.String()), &item)
	if err != nil {
		return nil, wrapErr("get item", err)
	}
	if !found {
		return nil, nil
	}
	return &item, nil
}

// RecordMint stores the mint facts without touching owner or updated_at of an existing item.
// Ownerships already recorded for the item take the minted creator.
func (s *gormStore) RecordMint(ctx context.Context, input RecordMintInput) error {
	item := schema.NewItem(input.ItemID, input.MintedAt)
	item.Owner = &input.Owner
	item.Creator = input.Creator
	item.Royalties = datatypes.JSONSlice[domain.Part](input.Royalties)
	item.MintedAt = &input.MintedAt
	if len(input.Meta) > 0 {
		item.Meta = make(datatypes.JSONMap, len(input.Meta))
		for k, v := range input.Meta {
			item.Meta[k] = v
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"creator", "royalties", "meta", "minted_at"}),
		}).Create(item).Error; err != nil {
			return err
		}
		// deposits seen before the mint recorded an empty creator
		return tx.Model(&schema.Ownership{}).
			Where("item_id = ? AND creator <> ?", item.ID, input.Creator).
			Update("creator", input.Creator).Error
	})
	if err != nil {
		return wrapErr("record mint", err)
	}
	return nil
}

// SetItemOwner upserts the owner when the stored item is not newer than ts
func (s *gormStore) SetItemOwner(ctx context.Context, id domain.ItemID, owner string, ts time.Time) (bool, error) {
	item := schema.NewItem(id, ts)
	item.Owner = &owner

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "updated_at"}),
		Where:     itemsNotNewer,
	}).Create(item)
	if result.Error != nil {
		return false, wrapErr("set item owner", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ReleaseItemOwner stamps the item and clears the owner only if it still points at from.
// A withdraw for an unseen item leaves an ownerless placeholder so that older deposits become stale.
func (s *gormStore) ReleaseItemOwner(ctx context.Context, id domain.ItemID, from string, ts time.Time) (bool, error) {
	item := schema.NewItem(id, ts)

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "owner"}, Value: gorm.Expr("CASE WHEN items.owner = ? THEN NULL ELSE items.owner END", from)},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
		},
		Where: itemsNotNewer,
	}).Create(item)
	if result.Error != nil {
		return false, wrapErr("release item owner", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkItemDeleted tombstones the item. Items are never hard-deleted.
func (s *gormStore) MarkItemDeleted(ctx context.Context, id domain.ItemID, ts time.Time) (bool, error) {
	item := schema.NewItem(id, ts)
	item.Deleted = true

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "owner"}, Value: nil},
			{Column: clause.Column{Name: "deleted"}, Value: true},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
		},
		Where: itemsNotNewer,
	}).Create(item)
	if result.Error != nil {
		return false, wrapErr("mark item deleted", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListItems lists live items matching every set field of the filter
func (s *gormStore) ListItems(ctx context.Context, filter ItemFilter, q continuation.PageQuery) ([]schema.Item, error) {
	query := s.db.WithContext(ctx).Where("deleted = ?", false)
	if filter.Owner != "" {
		query = query.Where("owner = ?", filter.Owner)
	}
	if filter.Collection != "" {
		query = query.Where("contract = ?", filter.Collection)
	}
	if filter.Creator != "" {
		query = query.Where("creator = ?", filter.Creator)
	}

	var items []schema.Item
	if err := query.Scopes(q.Scope("updated_at", "id")).Find(&items).Error; err != nil {
		return nil, wrapErr("list items", err)
	}
	return items, nil
}
