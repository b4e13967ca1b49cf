package store

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// GetLot retrieves an auction lot by its identifier
func (s *gormStore) GetLot(ctx context.Context, id string) (*schema.AuctionLot, error) {
	var lot schema.AuctionLot
	found, err := first(s.db.WithContext(ctx).Where("id = ?", id), &lot)
	if err != nil {
		return nil, wrapErr("get lot", err)
	}
	if !found {
		return nil, nil
	}
	return &lot, nil
}

// CreateLot inserts the lot unless it already exists
func (s *gormStore) CreateLot(ctx context.Context, lot *schema.AuctionLot) (bool, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(lot)
	if result.Error != nil {
		return false, wrapErr("create lot", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateLotIfMonotonic is the compare-and-swap transition of a lot
func (s *gormStore) UpdateLotIfMonotonic(ctx context.Context, lot *schema.AuctionLot, expected schema.LotStatus) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&schema.AuctionLot{}).
		Where("id = ? AND last_updated_at <= ? AND status = ?", lot.ID, lot.LastUpdatedAt, expected).
		Updates(map[string]any{
			"status":          lot.Status,
			"buyer":           lot.Buyer,
			"finish_at":       lot.FinishAt,
			"last_bid_amount": lot.LastBidAmount,
			"last_bidder":     lot.LastBidder,
			"last_bid_at":     lot.LastBidAt,
			"hammer_price":    lot.HammerPrice,
			"hammer_at":       lot.HammerAt,
			"cleaned":         lot.Cleaned,
			"last_updated_at": lot.LastUpdatedAt,
		})
	if result.Error != nil {
		return false, wrapErr("update lot", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListLots lists lots, optionally restricted to a status
func (s *gormStore) ListLots(ctx context.Context, status *schema.LotStatus, q continuation.PageQuery) ([]schema.AuctionLot, error) {
	query := s.db.WithContext(ctx)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var lots []schema.AuctionLot
	if err := query.Scopes(q.Scope("last_updated_at", "id")).Find(&lots).Error; err != nil {
		return nil, wrapErr("list lots", err)
	}
	return lots, nil
}
