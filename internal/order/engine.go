package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/logger"
	"github.com/feral-file/ff-market-indexer/internal/store"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// maxCASAttempts bounds how often a transition is re-evaluated after losing a compare-and-swap
const maxCASAttempts = 3

// Engine drives the order lifecycle. Lifecycle transitions (cancel, fill) are
// stamped with the activity timestamp: transitions older than the last lifecycle
// activity or targeting a terminal order fail with domain.ErrStaleUpdate and
// leave the order untouched. Stock recomputes are derived from backing read at
// evaluation time and never move the lifecycle timestamp. Every write is a
// compare-and-swap on the version read.
type Engine interface {
	// Open inserts the order with make stock derived from its backing. Redelivered
	// opens are no-ops and return created=false.
	Open(ctx context.Context, order *schema.Order, backing decimal.Decimal) (created bool, err error)

	// Cancel moves the order to CANCELLED
	Cancel(ctx context.Context, orderID string, ts time.Time) (*schema.Order, error)

	// Fill adds filled to the order fill; nil fills the remaining amount.
	// A complete fill moves the order to FILLED, otherwise stock is re-derived from backing.
	Fill(ctx context.Context, orderID string, filled *decimal.Decimal, taker string, ts time.Time, backing decimal.Decimal) (*schema.Order, error)

	// RecomputeStock re-derives make stock and ACTIVE/INACTIVE status from backing.
	// Returns changed=false when the order was already in the derived state or became terminal.
	RecomputeStock(ctx context.Context, order *schema.Order, backing decimal.Decimal) (changed bool, err error)

	// DeactivateListings sets the ACTIVE LIST orders of maker on the item to INACTIVE
	DeactivateListings(ctx context.Context, item domain.ItemID, maker string) ([]schema.Order, error)

	// ReactivateListings sets the INACTIVE LIST orders of owner on the item back to ACTIVE
	ReactivateListings(ctx context.Context, item domain.ItemID, owner string) ([]schema.Order, error)

	// CancelListings cancels every open LIST order on the item
	CancelListings(ctx context.Context, item domain.ItemID, ts time.Time) ([]schema.Order, error)
}

type engine struct {
	store store.OrderStore
}

// NewEngine creates an order engine on top of the order store
func NewEngine(st store.OrderStore) Engine {
	return &engine{store: st}
}

// Stock returns the fillable size of the order given its backing. For bids the
// backing is the maker balance of the make token; for listings it is binary
// ownership of the item, any positive backing meaning the maker still holds it.
func Stock(o *schema.Order, backing decimal.Decimal) decimal.Decimal {
	remaining := o.Remaining()
	if !remaining.IsPositive() || !backing.IsPositive() {
		return decimal.Zero
	}
	if o.Type == schema.OrderTypeList {
		return remaining
	}
	return decimal.Min(remaining, backing)
}

// statusFor keeps ACTIVE equivalent to a positive stock
func statusFor(stock decimal.Decimal) schema.OrderStatus {
	if stock.IsPositive() {
		return schema.OrderStatusActive
	}
	return schema.OrderStatusInactive
}

// Open inserts the order unless it already exists
func (e *engine) Open(ctx context.Context, o *schema.Order, backing decimal.Decimal) (bool, error) {
	if !o.Amount.IsPositive() {
		return false, fmt.Errorf("%w: order %s has non-positive amount %s", domain.ErrMapping, o.ID, o.Amount)
	}

	o.Fill = decimal.Zero
	o.MakeStock = Stock(o, backing)
	o.Status = statusFor(o.MakeStock)
	o.Taker = nil
	if o.CreatedAt.IsZero() {
		o.CreatedAt = o.LastUpdatedAt
	}

	created, err := e.store.CreateOrder(ctx, o)
	if err != nil {
		return false, fmt.Errorf("failed to create order %s: %w", o.ID, err)
	}
	return created, nil
}

// Cancel moves the order to CANCELLED
func (e *engine) Cancel(ctx context.Context, orderID string, ts time.Time) (*schema.Order, error) {
	return e.transition(ctx, orderID, ts, func(o *schema.Order) {
		o.Status = schema.OrderStatusCancelled
		o.MakeStock = decimal.Zero
	})
}

// Fill settles part or all of the order
func (e *engine) Fill(ctx context.Context, orderID string, filled *decimal.Decimal, taker string, ts time.Time, backing decimal.Decimal) (*schema.Order, error) {
	return e.transition(ctx, orderID, ts, func(o *schema.Order) {
		amount := o.Remaining()
		if filled != nil && filled.IsPositive() {
			amount = *filled
		}
		o.Fill = decimal.Min(o.Fill.Add(amount), o.Amount)
		if taker != "" {
			o.Taker = &taker
		}

		if o.Fill.GreaterThanOrEqual(o.Amount) {
			o.Status = schema.OrderStatusFilled
			o.MakeStock = decimal.Zero
			return
		}
		o.MakeStock = Stock(o, backing)
		o.Status = statusFor(o.MakeStock)
	})
}

// transition applies fn to the stored order and writes it back with a compare-and-swap.
// A lost swap re-reads and re-evaluates the order.
func (e *engine) transition(ctx context.Context, orderID string, ts time.Time, fn func(*schema.Order)) (*schema.Order, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		current, err := e.store.GetOrder(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
		}
		if current == nil {
			return nil, fmt.Errorf("%w: order %s", domain.ErrReferenceNotFound, orderID)
		}
		if current.Status.Terminal() {
			logger.DebugCtx(ctx, "Ignoring transition of terminal order",
				zap.String("order_id", orderID),
				zap.String("status", string(current.Status)))
			return nil, fmt.Errorf("%w: order %s is %s", domain.ErrStaleUpdate, orderID, current.Status)
		}
		if ts.Before(current.LastUpdatedAt) {
			return nil, fmt.Errorf("%w: order %s updated at %s", domain.ErrStaleUpdate, orderID, current.LastUpdatedAt)
		}

		next := *current
		fn(&next)
		next.LastUpdatedAt = ts

		ok, err := e.store.UpdateOrderIfMonotonic(ctx, &next, current)
		if err != nil {
			return nil, fmt.Errorf("failed to update order %s: %w", orderID, err)
		}
		if ok {
			return &next, nil
		}
	}
	return nil, fmt.Errorf("%w: order %s changed concurrently", domain.ErrStaleUpdate, orderID)
}

// RecomputeStock re-derives stock and status from the backing. A lost swap
// re-reads the order and derives again against the same backing.
func (e *engine) RecomputeStock(ctx context.Context, o *schema.Order, backing decimal.Decimal) (bool, error) {
	current := o
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		if current.Status.Terminal() {
			return false, nil
		}

		stock := Stock(current, backing)
		status := statusFor(stock)
		if stock.Equal(current.MakeStock) && status == current.Status {
			return false, nil
		}

		ok, err := e.store.UpdateOrderStock(ctx, current, stock, status)
		if err != nil {
			return false, fmt.Errorf("failed to update stock of order %s: %w", o.ID, err)
		}
		if ok {
			*o = *current
			o.MakeStock = stock
			o.Status = status
			o.Version++
			return true, nil
		}

		current, err = e.store.GetOrder(ctx, o.ID)
		if err != nil {
			return false, fmt.Errorf("failed to get order %s: %w", o.ID, err)
		}
		if current == nil {
			return false, nil
		}
	}

	logger.DebugCtx(ctx, "Giving up stock recompute of contended order", zap.String("order_id", o.ID))
	return false, nil
}

// DeactivateListings sets the maker's ACTIVE listings of the item to INACTIVE.
// The caller has checked the maker no longer holds the item.
func (e *engine) DeactivateListings(ctx context.Context, item domain.ItemID, maker string) ([]schema.Order, error) {
	orders, err := e.store.FindListOrdersByItem(ctx, item.String(), maker,
		[]schema.OrderStatus{schema.OrderStatusActive}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to find listings of %s: %w", item, err)
	}
	return e.restock(ctx, orders, decimal.Zero)
}

// ReactivateListings sets the owner's INACTIVE listings of the item back to ACTIVE
func (e *engine) ReactivateListings(ctx context.Context, item domain.ItemID, owner string) ([]schema.Order, error) {
	orders, err := e.store.FindListOrdersByItem(ctx, item.String(), owner,
		[]schema.OrderStatus{schema.OrderStatusInactive}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to find listings of %s: %w", item, err)
	}
	return e.restock(ctx, orders, decimal.NewFromInt(1))
}

func (e *engine) restock(ctx context.Context, orders []schema.Order, backing decimal.Decimal) ([]schema.Order, error) {
	var changed []schema.Order
	for i := range orders {
		ok, err := e.RecomputeStock(ctx, &orders[i], backing)
		if err != nil {
			return changed, err
		}
		if ok {
			changed = append(changed, orders[i])
		}
	}
	return changed, nil
}

// CancelListings cancels every open listing of the item
func (e *engine) CancelListings(ctx context.Context, item domain.ItemID, ts time.Time) ([]schema.Order, error) {
	orders, err := e.store.FindListOrdersByItem(ctx, item.String(), "",
		[]schema.OrderStatus{schema.OrderStatusActive, schema.OrderStatusInactive}, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to find listings of %s: %w", item, err)
	}

	var cancelled []schema.Order
	for _, o := range orders {
		next, err := e.Cancel(ctx, o.ID, ts)
		if errors.Is(err, domain.ErrStaleUpdate) {
			continue
		}
		if err != nil {
			return cancelled, err
		}
		cancelled = append(cancelled, *next)
	}
	return cancelled, nil
}

// FromList builds the order row of a LIST activity
func FromList(a domain.ListActivity) (*schema.Order, error) {
	item, ok := a.Make.ItemID()
	if !ok {
		return nil, fmt.Errorf("%w: listing %s does not sell an NFT", domain.ErrMapping, a.OrderID)
	}
	o := newOrder(a.OrderID, schema.OrderTypeList, item, a.Maker, a.Make, a.Take, a.Amount, a.Timestamp)
	o.Payouts = a.Payouts
	o.OriginFees = a.OriginFees
	return o, nil
}

// FromBid builds the order row of a BID activity
func FromBid(a domain.BidActivity) (*schema.Order, error) {
	item, ok := a.Take.ItemID()
	if !ok {
		return nil, fmt.Errorf("%w: bid %s does not target an NFT", domain.ErrMapping, a.OrderID)
	}
	return newOrder(a.OrderID, schema.OrderTypeBid, item, a.Maker, a.Make, a.Take, a.Amount, a.Timestamp), nil
}

func newOrder(id string, t schema.OrderType, item domain.ItemID, maker string, makeAsset, takeAsset domain.Asset, amount decimal.Decimal, ts time.Time) *schema.Order {
	return &schema.Order{
		ID:            id,
		Type:          t,
		ItemID:        item.String(),
		Maker:         maker,
		MakeType:      makeAsset.Type,
		MakeContract:  makeAsset.Contract,
		MakeTokenID:   makeAsset.TokenID,
		MakeValue:     makeAsset.Value,
		TakeType:      takeAsset.Type,
		TakeContract:  takeAsset.Contract,
		TakeTokenID:   takeAsset.TokenID,
		TakeValue:     takeAsset.Value,
		Amount:        amount,
		Fill:          decimal.Zero,
		MakeStock:     decimal.Zero,
		CreatedAt:     ts,
		LastUpdatedAt: ts,
	}
}
