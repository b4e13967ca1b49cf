package auction

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/logger"
	"github.com/feral-file/ff-market-indexer/internal/store"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

const maxCASAttempts = 3

// Engine drives the English auction lot state machine:
//
//	ACTIVE -> FINISHED (Complete), ACTIVE -> CANCELED (Cancel),
//	FINISHED | CANCELED -> cleaned (Clean)
//
// Rejected transitions fail with domain.ErrStaleUpdate and leave the lot untouched.
type Engine interface {
	// Open creates the lot. Redelivered opens are no-ops and return created=false.
	Open(ctx context.Context, a domain.LotAvailableActivity) (lot *schema.AuctionLot, created bool, err error)

	// Complete hammers an ACTIVE lot
	Complete(ctx context.Context, lotID string, buyer *string, hammerPrice decimal.Decimal, ts time.Time) (*schema.AuctionLot, error)

	// Cancel cancels an ACTIVE lot
	Cancel(ctx context.Context, lotID string, ts time.Time) (*schema.AuctionLot, error)

	// ChangeEndTime extends the end of an ACTIVE lot
	ChangeEndTime(ctx context.Context, lotID string, finishAt time.Time, ts time.Time) (*schema.AuctionLot, error)

	// Clean marks a FINISHED or CANCELED lot as settled on chain
	Clean(ctx context.Context, lotID string, ts time.Time) (*schema.AuctionLot, error)

	// PlaceBid records a bid on an ACTIVE lot when it beats the last one
	PlaceBid(ctx context.Context, lotID string, bidder string, amount decimal.Decimal, ts time.Time) (*schema.AuctionLot, error)
}

type engine struct {
	store store.AuctionLotStore
}

// NewEngine creates an auction engine on top of the lot store
func NewEngine(st store.AuctionLotStore) Engine {
	return &engine{store: st}
}

// Open creates the lot unless it already exists
func (e *engine) Open(ctx context.Context, a domain.LotAvailableActivity) (*schema.AuctionLot, bool, error) {
	item, ok := a.Sell.ItemID()
	if !ok {
		return nil, false, fmt.Errorf("%w: lot %s does not sell an NFT", domain.ErrMapping, a.LotID)
	}

	finishAt := a.StartAt.Add(a.Duration)
	lot := &schema.AuctionLot{
		ID:              a.LotID,
		Status:          schema.LotStatusActive,
		Seller:          a.Seller,
		ItemID:          item.String(),
		Contract:        item.Contract,
		TokenID:         item.TokenID,
		SellValue:       a.Sell.Value,
		Currency:        a.Currency,
		StartPrice:      a.StartPrice,
		MinStep:         a.MinStep,
		DurationSeconds: int64(a.Duration / time.Second),
		StartAt:         a.StartAt,
		FinishAt:        &finishAt,
		OriginFees:      a.OriginFees,
		CreatedAt:       a.Timestamp,
		LastUpdatedAt:   a.Timestamp,
	}
	if a.BuyoutPrice != nil {
		lot.BuyoutPrice = decimal.NewNullDecimal(*a.BuyoutPrice)
	}

	created, err := e.store.CreateLot(ctx, lot)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create lot %s: %w", a.LotID, err)
	}
	return lot, created, nil
}

// Complete moves an ACTIVE lot to FINISHED. Buyer and hammer price are set once.
func (e *engine) Complete(ctx context.Context, lotID string, buyer *string, hammerPrice decimal.Decimal, ts time.Time) (*schema.AuctionLot, error) {
	return e.transition(ctx, lotID, ts, true, func(lot *schema.AuctionLot) error {
		if lot.Status != schema.LotStatusActive {
			return rejected(ctx, lot, "complete")
		}
		lot.Status = schema.LotStatusFinished
		lot.Buyer = buyer
		lot.HammerPrice = decimal.NewNullDecimal(hammerPrice)
		lot.HammerAt = &ts
		return nil
	})
}

// Cancel moves an ACTIVE lot to CANCELED
func (e *engine) Cancel(ctx context.Context, lotID string, ts time.Time) (*schema.AuctionLot, error) {
	return e.transition(ctx, lotID, ts, true, func(lot *schema.AuctionLot) error {
		if lot.Status != schema.LotStatusActive {
			return rejected(ctx, lot, "cancel")
		}
		lot.Status = schema.LotStatusCanceled
		return nil
	})
}

// ChangeEndTime only ever moves the end of the lot later.
// The extension itself orders the events, so an older delivery is still accepted.
func (e *engine) ChangeEndTime(ctx context.Context, lotID string, finishAt time.Time, ts time.Time) (*schema.AuctionLot, error) {
	return e.transition(ctx, lotID, ts, false, func(lot *schema.AuctionLot) error {
		if lot.Status.Terminal() {
			return rejected(ctx, lot, "change end time")
		}
		if lot.FinishAt != nil && !finishAt.After(*lot.FinishAt) {
			return fmt.Errorf("%w: lot %s already ends at %s", domain.ErrStaleUpdate, lot.ID, lot.FinishAt)
		}
		lot.FinishAt = &finishAt
		return nil
	})
}

// Clean marks a terminal lot as cleaned
func (e *engine) Clean(ctx context.Context, lotID string, ts time.Time) (*schema.AuctionLot, error) {
	return e.transition(ctx, lotID, ts, false, func(lot *schema.AuctionLot) error {
		if !lot.Status.Terminal() || lot.Cleaned {
			return rejected(ctx, lot, "clean")
		}
		lot.Cleaned = true
		return nil
	})
}

// PlaceBid records the bid iff the lot has no bid yet or the amount beats the last bid.
// Bid amounts are strictly increasing, so an older delivery is still accepted.
func (e *engine) PlaceBid(ctx context.Context, lotID string, bidder string, amount decimal.Decimal, ts time.Time) (*schema.AuctionLot, error) {
	return e.transition(ctx, lotID, ts, false, func(lot *schema.AuctionLot) error {
		if lot.Status.Terminal() {
			return rejected(ctx, lot, "bid")
		}
		if lot.LastBidAmount.Valid && !amount.GreaterThan(lot.LastBidAmount.Decimal) {
			return fmt.Errorf("%w: lot %s has a bid of %s", domain.ErrStaleUpdate, lot.ID, lot.LastBidAmount.Decimal)
		}
		lot.LastBidAmount = decimal.NewNullDecimal(amount)
		lot.LastBidder = &bidder
		lot.LastBidAt = &ts
		return nil
	})
}

func rejected(ctx context.Context, lot *schema.AuctionLot, op string) error {
	logger.DebugCtx(ctx, "Rejected lot transition",
		zap.String("lot_id", lot.ID),
		zap.String("op", op),
		zap.String("status", string(lot.Status)),
		zap.Bool("cleaned", lot.Cleaned))
	return fmt.Errorf("%w: cannot %s lot %s in status %s", domain.ErrStaleUpdate, op, lot.ID, lot.Status)
}

// transition applies fn to the stored lot and writes it back with a compare-and-swap.
// Monotonic transitions are rejected when older than the lot; the others are stamped
// with the newer of ts and the stored timestamp.
func (e *engine) transition(ctx context.Context, lotID string, ts time.Time, monotonic bool, fn func(*schema.AuctionLot) error) (*schema.AuctionLot, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		current, err := e.store.GetLot(ctx, lotID)
		if err != nil {
			return nil, fmt.Errorf("failed to get lot %s: %w", lotID, err)
		}
		if current == nil {
			return nil, fmt.Errorf("%w: lot %s", domain.ErrReferenceNotFound, lotID)
		}

		stamp := ts
		if ts.Before(current.LastUpdatedAt) {
			if monotonic {
				return nil, fmt.Errorf("%w: lot %s updated at %s", domain.ErrStaleUpdate, lotID, current.LastUpdatedAt)
			}
			stamp = current.LastUpdatedAt
		}

		next := *current
		if err := fn(&next); err != nil {
			return nil, err
		}
		next.LastUpdatedAt = stamp

		ok, err := e.store.UpdateLotIfMonotonic(ctx, &next, current.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to update lot %s: %w", lotID, err)
		}
		if ok {
			return &next, nil
		}
	}
	return nil, fmt.Errorf("%w: lot %s changed concurrently", domain.ErrStaleUpdate, lotID)
}
