package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// openStatuses are the statuses a balance or ownership change may flip between
var openStatuses = []schema.OrderStatus{schema.OrderStatusActive, schema.OrderStatusInactive}

// GetOrder retrieves an order by its identifier
func (s *gormStore) GetOrder(ctx context.Context, id string) (*schema.Order, error) {
	var order schema.Order
	found, err := first(s.db.WithContext(ctx).Where("id = ?", id), &order)
	if err != nil {
		return nil, wrapErr("get order", err)
	}
	if !found {
		return nil, nil
	}
	return &order, nil
}

// CreateOrder inserts the order unless it already exists
func (s *gormStore) CreateOrder(ctx context.Context, order *schema.Order) (bool, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(order)
	if result.Error != nil {
		return false, wrapErr("create order", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateOrderIfMonotonic is the compare-and-swap transition of an order
func (s *gormStore) UpdateOrderIfMonotonic(ctx context.Context, next *schema.Order, current *schema.Order) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&schema.Order{}).
		Where("id = ? AND version = ? AND status = ? AND fill = ? AND last_updated_at <= ?",
			current.ID, current.Version, current.Status, current.Fill, next.LastUpdatedAt).
		Updates(map[string]any{
			"status":          next.Status,
			"taker":           next.Taker,
			"make_stock":      next.MakeStock,
			"fill":            next.Fill,
			"last_updated_at": next.LastUpdatedAt,
			"version":         current.Version + 1,
		})
	if result.Error != nil {
		return false, wrapErr("update order", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	next.Version = current.Version + 1
	return true, nil
}

// UpdateOrderStock sets stock and status of an ACTIVE or INACTIVE order still at the read version
func (s *gormStore) UpdateOrderStock(ctx context.Context, current *schema.Order, stock decimal.Decimal, status schema.OrderStatus) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&schema.Order{}).
		Where("id = ? AND version = ? AND status IN ?", current.ID, current.Version, openStatuses).
		Updates(map[string]any{
			"status":     status,
			"make_stock": stock,
			"version":    current.Version + 1,
		})
	if result.Error != nil {
		return false, wrapErr("update order stock", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// FindListOrdersByItem returns LIST orders of the item matching maker and statuses
func (s *gormStore) FindListOrdersByItem(ctx context.Context, itemID string, maker string, statuses []schema.OrderStatus, ts time.Time) ([]schema.Order, error) {
	query := s.db.WithContext(ctx).
		Where("item_id = ? AND type = ? AND status IN ?", itemID, schema.OrderTypeList, statuses)
	if !ts.IsZero() {
		query = query.Where("last_updated_at <= ?", ts)
	}
	if maker != "" {
		query = query.Where("maker = ?", maker)
	}

	var orders []schema.Order
	if err := query.Order("created_at, id").Find(&orders).Error; err != nil {
		return nil, wrapErr("find list orders by item", err)
	}
	return orders, nil
}

// FindBidsByMakerAndToken pages through open bids of maker backed by token
func (s *gormStore) FindBidsByMakerAndToken(ctx context.Context, maker string, token string, q continuation.PageQuery) ([]schema.Order, error) {
	var orders []schema.Order
	err := s.db.WithContext(ctx).
		Where("maker = ? AND make_contract = ? AND type = ? AND status IN ?", maker, token, schema.OrderTypeBid, openStatuses).
		Scopes(q.Scope("created_at", "id")).
		Find(&orders).Error
	if err != nil {
		return nil, wrapErr("find bids by maker and token", err)
	}
	return orders, nil
}

// ListBidMakers returns distinct (maker, token) pairs with open bids ordered by maker then token
func (s *gormStore) ListBidMakers(ctx context.Context, after *BalanceKey, limit int) ([]BalanceKey, error) {
	query := s.db.WithContext(ctx).
		Model(&schema.Order{}).
		Distinct("maker", "make_contract").
		Where("type = ? AND status IN ?", schema.OrderTypeBid, openStatuses)
	if after != nil {
		query = query.Where("(maker > ? OR (maker = ? AND make_contract > ?))", after.Owner, after.Owner, after.Token)
	}

	var rows []struct {
		Maker        string
		MakeContract string
	}
	if err := query.Order("maker, make_contract").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, wrapErr("list bid makers", err)
	}

	keys := make([]BalanceKey, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, BalanceKey{Owner: r.Maker, Token: r.MakeContract})
	}
	return keys, nil
}

// ListOrdersByItem lists orders of the item
func (s *gormStore) ListOrdersByItem(ctx context.Context, itemID string, orderType *schema.OrderType, q continuation.PageQuery) ([]schema.Order, error) {
	query := s.db.WithContext(ctx).Where("item_id = ?", itemID)
	if orderType != nil {
		query = query.Where("type = ?", *orderType)
	}

	var orders []schema.Order
	if err := query.Scopes(q.Scope("last_updated_at", "id")).Find(&orders).Error; err != nil {
		return nil, wrapErr("list orders by item", err)
	}
	return orders, nil
}
