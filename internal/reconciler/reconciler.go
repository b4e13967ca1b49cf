// Package reconciler applies typed activities to the item, ownership, order,
// lot and balance aggregates exactly once per log id.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-market-indexer/internal/adapter"
	"github.com/feral-file/ff-market-indexer/internal/auction"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/logger"
	"github.com/feral-file/ff-market-indexer/internal/messaging"
	"github.com/feral-file/ff-market-indexer/internal/order"
	"github.com/feral-file/ff-market-indexer/internal/store"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// Reconciler applies activities to the stored aggregates
//
//go:generate mockgen -source=reconciler.go -destination=../mocks/reconciler.go -package=mocks -mock_names=Reconciler=MockReconciler,BalanceHandler=MockBalanceHandler
type Reconciler interface {
	// Apply applies the activity unless its log id was already applied.
	// Only store failures are returned; they wrap domain.ErrStoreUnavailable when
	// the same log should be redelivered.
	Apply(ctx context.Context, activity domain.Activity) error
}

// BalanceHandler applies a fungible balance change and re-derives the bids it backs
type BalanceHandler interface {
	OnBalanceChange(ctx context.Context, activity domain.BalanceChangedActivity) error
}

type reconciler struct {
	store    store.Store
	orders   order.Engine
	auctions auction.Engine
	balances BalanceHandler
	notifier messaging.Notifier
	clock    adapter.Clock
	json     adapter.JSON
}

// New creates a reconciler
func New(
	st store.Store,
	orders order.Engine,
	auctions auction.Engine,
	balances BalanceHandler,
	notifier messaging.Notifier,
	clock adapter.Clock,
	jsonAdapter adapter.JSON,
) Reconciler {
	return &reconciler{
		store:    st,
		orders:   orders,
		auctions: auctions,
		balances: balances,
		notifier: notifier,
		clock:    clock,
		json:     jsonAdapter,
	}
}

// Apply checks the idempotence set, dispatches, records the activity and marks the log seen
func (r *reconciler) Apply(ctx context.Context, activity domain.Activity) error {
	meta := activity.Meta()

	seen, err := r.store.IsLogSeen(ctx, meta.LogID)
	if err != nil {
		return err
	}
	if seen {
		logger.DebugCtx(ctx, "Skipping already applied log", logger.Activity(activity))
		return nil
	}

	history := r.newHistory(activity)
	if err := r.dispatch(ctx, activity, history); err != nil {
		switch {
		case errors.Is(err, domain.ErrStaleUpdate):
			logger.DebugCtx(ctx, "Stale activity", logger.Activity(activity), zap.Error(err))
		case errors.Is(err, domain.ErrReferenceNotFound):
			logger.WarnCtx(ctx, "Activity references a missing aggregate", logger.Activity(activity), zap.Error(err))
		case errors.Is(err, domain.ErrMapping):
			logger.WarnCtx(ctx, "Dropping malformed activity", logger.Activity(activity), zap.Error(err))
		default:
			return err
		}
	}

	if err := r.store.SaveActivity(ctx, history); err != nil {
		return err
	}
	return r.store.MarkLogSeen(ctx, meta.LogID, r.clock.Now().UTC())
}

// dispatch routes the activity to its handler. The switch is exhaustive over
// the activity union.
func (r *reconciler) dispatch(ctx context.Context, activity domain.Activity, h *schema.ItemHistory) error {
	switch a := activity.(type) {
	case domain.MintActivity:
		return r.mint(ctx, a)
	case domain.BurnActivity:
		return r.burn(ctx, a)
	case domain.TransferActivity:
		if err := r.withdraw(ctx, a.Item(), a.From, a.LogID, a.Timestamp); err != nil {
			return err
		}
		return r.deposit(ctx, a.Item(), a.To, a.LogID, a.Timestamp)
	case domain.WithdrawActivity:
		return r.withdraw(ctx, a.Item(), a.From, a.LogID, a.Timestamp)
	case domain.DepositActivity:
		return r.deposit(ctx, a.Item(), a.To, a.LogID, a.Timestamp)
	case domain.ListActivity:
		return r.list(ctx, a)
	case domain.BidActivity:
		return r.bid(ctx, a)
	case domain.CancelListActivity:
		return r.cancelOrder(ctx, a.OrderID, a.LogID, a.Timestamp, h)
	case domain.CancelBidActivity:
		return r.cancelOrder(ctx, a.OrderID, a.LogID, a.Timestamp, h)
	case domain.SellActivity:
		return r.sell(ctx, a, h)
	case domain.LotAvailableActivity:
		return r.lotAvailable(ctx, a)
	case domain.LotCompletedActivity:
		return r.lotChanged(ctx, a.LogID, h)(r.auctions.Complete(ctx, a.LotID, a.Buyer, a.HammerPrice, a.Timestamp))
	case domain.LotCanceledActivity:
		return r.lotChanged(ctx, a.LogID, h)(r.auctions.Cancel(ctx, a.LotID, a.Timestamp))
	case domain.LotEndTimeChangedActivity:
		return r.lotChanged(ctx, a.LogID, h)(r.auctions.ChangeEndTime(ctx, a.LotID, a.FinishAt, a.Timestamp))
	case domain.LotCleanedActivity:
		return r.lotChanged(ctx, a.LogID, h)(r.auctions.Clean(ctx, a.LotID, a.Timestamp))
	case domain.BidOpenedActivity:
		return r.lotChanged(ctx, a.LogID, h)(r.auctions.PlaceBid(ctx, a.LotID, a.Bidder, a.Amount, a.Timestamp))
	case domain.BidIncreasedActivity:
		return r.lotChanged(ctx, a.LogID, h)(r.auctions.PlaceBid(ctx, a.LotID, a.Bidder, a.Amount, a.Timestamp))
	case domain.BidClosedActivity:
		// the outbid deposit goes back to the bidder; the lot itself is unchanged
		return r.lotReference(ctx, a.LotID, h)
	case domain.BalanceChangedActivity:
		return r.balances.OnBalanceChange(ctx, a)
	default:
		return fmt.Errorf("%w: unhandled activity %T", domain.ErrMapping, activity)
	}
}

func (r *reconciler) mint(ctx context.Context, a domain.MintActivity) error {
	item := a.Item()
	err := r.store.RecordMint(ctx, store.RecordMintInput{
		ItemID:    item,
		Owner:     a.Owner,
		Creator:   a.Creator,
		Royalties: a.Royalties,
		Meta:      a.Metadata,
		MintedAt:  a.Timestamp,
	})
	if err != nil {
		return err
	}

	applied, err := r.store.SetItemOwner(ctx, item, a.Owner, a.Timestamp)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%w: mint of %s", domain.ErrStaleUpdate, item)
	}
	r.notifyItem(ctx, item, a.LogID)

	ownership := schema.NewOwnership(domain.NewOwnershipID(item, a.Owner), a.Creator, a.Timestamp)
	if _, err := r.store.UpsertOwnership(ctx, ownership); err != nil {
		return err
	}
	r.notifier.Notify(ctx, domain.ChangeTypeOwnershipChanged, ownership.ID, a.LogID, ownership)
	return nil
}

func (r *reconciler) burn(ctx context.Context, a domain.BurnActivity) error {
	item := a.Item()

	applied, err := r.store.MarkItemDeleted(ctx, item, a.Timestamp)
	if err != nil {
		return err
	}
	if applied {
		r.notifyItem(ctx, item, a.LogID)
	}

	deleted, err := r.store.DeleteOwnershipsByItem(ctx, item, a.Timestamp)
	if err != nil {
		return err
	}
	for _, o := range deleted {
		r.notifier.Notify(ctx, domain.ChangeTypeOwnershipDeleted, o.ID, a.LogID, o)
	}

	cancelled, err := r.orders.CancelListings(ctx, item, a.Timestamp)
	r.notifyOrders(ctx, cancelled, a.LogID)
	return err
}

func (r *reconciler) withdraw(ctx context.Context, item domain.ItemID, from string, logID domain.LogID, ts time.Time) error {
	applied, err := r.store.ReleaseItemOwner(ctx, item, from, ts)
	if err != nil {
		return err
	}
	if applied {
		r.notifyItem(ctx, item, logID)
	}

	id := domain.NewOwnershipID(item, from)
	deleted, err := r.store.DeleteOwnership(ctx, id, ts)
	if err != nil {
		return err
	}
	if deleted {
		r.notifier.Notify(ctx, domain.ChangeTypeOwnershipDeleted, id.String(), logID, nil)
	}

	// a later deposit back to the sender already restored the holding
	still, err := r.store.GetOwnership(ctx, id)
	if err != nil {
		return err
	}
	if still != nil {
		return nil
	}

	deactivated, err := r.orders.DeactivateListings(ctx, item, from)
	r.notifyOrders(ctx, deactivated, logID)
	return err
}

func (r *reconciler) deposit(ctx context.Context, item domain.ItemID, to string, logID domain.LogID, ts time.Time) error {
	applied, err := r.store.SetItemOwner(ctx, item, to, ts)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%w: deposit of %s to %s", domain.ErrStaleUpdate, item, to)
	}
	r.notifyItem(ctx, item, logID)

	stored, err := r.store.GetItem(ctx, item)
	if err != nil {
		return err
	}
	creator := ""
	if stored != nil {
		creator = stored.Creator
	}

	ownership := schema.NewOwnership(domain.NewOwnershipID(item, to), creator, ts)
	if _, err := r.store.UpsertOwnership(ctx, ownership); err != nil {
		return err
	}
	r.notifier.Notify(ctx, domain.ChangeTypeOwnershipChanged, ownership.ID, logID, ownership)

	reactivated, err := r.orders.ReactivateListings(ctx, item, to)
	r.notifyOrders(ctx, reactivated, logID)
	return err
}

func (r *reconciler) list(ctx context.Context, a domain.ListActivity) error {
	o, err := order.FromList(a)
	if err != nil {
		return err
	}
	item, _ := a.Make.ItemID()

	owned, err := r.store.GetOwnership(ctx, domain.NewOwnershipID(item, a.Maker))
	if err != nil {
		return err
	}
	backing := decimal.Zero
	if owned != nil {
		backing = decimal.NewFromInt(1)
	}
	return r.openOrder(ctx, o, backing, a.LogID)
}

func (r *reconciler) bid(ctx context.Context, a domain.BidActivity) error {
	o, err := order.FromBid(a)
	if err != nil {
		return err
	}
	backing, err := r.balance(ctx, a.Maker, a.Make.Contract)
	if err != nil {
		return err
	}
	return r.openOrder(ctx, o, backing, a.LogID)
}

func (r *reconciler) openOrder(ctx context.Context, o *schema.Order, backing decimal.Decimal, logID domain.LogID) error {
	created, err := r.orders.Open(ctx, o, backing)
	if err != nil {
		return err
	}
	if created {
		r.notifier.Notify(ctx, domain.ChangeTypeOrderChanged, o.ID, logID, o)
	}
	return nil
}

func (r *reconciler) cancelOrder(ctx context.Context, orderID string, logID domain.LogID, ts time.Time, h *schema.ItemHistory) error {
	o, err := r.orders.Cancel(ctx, orderID, ts)
	if err != nil {
		return r.orderReference(ctx, orderID, h, err)
	}
	describeOrder(h, o)
	r.notifier.Notify(ctx, domain.ChangeTypeOrderChanged, o.ID, logID, o)
	return nil
}

func (r *reconciler) sell(ctx context.Context, a domain.SellActivity, h *schema.ItemHistory) error {
	current, err := r.store.GetOrder(ctx, a.OrderID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("%w: order %s", domain.ErrReferenceNotFound, a.OrderID)
	}
	describeOrder(h, current)

	backing, err := r.backing(ctx, current)
	if err != nil {
		return err
	}

	o, err := r.orders.Fill(ctx, a.OrderID, a.Fill, a.Buyer, a.Timestamp, backing)
	if err != nil {
		return err
	}
	r.notifier.Notify(ctx, domain.ChangeTypeOrderChanged, o.ID, a.LogID, o)
	return nil
}

// backing returns what currently backs the order: the maker balance of a bid,
// or 1 when the maker of a listing holds the item
func (r *reconciler) backing(ctx context.Context, o *schema.Order) (decimal.Decimal, error) {
	if o.Type == schema.OrderTypeBid {
		return r.balance(ctx, o.Maker, o.MakeContract)
	}
	item, err := domain.ParseItemID(o.ItemID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: order %s: %v", domain.ErrMapping, o.ID, err)
	}
	owned, err := r.store.GetOwnership(ctx, domain.NewOwnershipID(item, o.Maker))
	if err != nil {
		return decimal.Zero, err
	}
	if owned == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromInt(1), nil
}

func (r *reconciler) balance(ctx context.Context, owner, token string) (decimal.Decimal, error) {
	b, err := r.store.GetBalance(ctx, owner, token)
	if err != nil {
		return decimal.Zero, err
	}
	if b == nil {
		return decimal.Zero, nil
	}
	return b.Amount, nil
}

func (r *reconciler) lotAvailable(ctx context.Context, a domain.LotAvailableActivity) error {
	lot, created, err := r.auctions.Open(ctx, a)
	if err != nil {
		return err
	}
	if created {
		r.notifier.Notify(ctx, domain.ChangeTypeLotChanged, lot.ID, a.LogID, lot)
	}
	return nil
}

// lotChanged publishes the lot returned by an auction transition and describes the history row
func (r *reconciler) lotChanged(ctx context.Context, logID domain.LogID, h *schema.ItemHistory) func(*schema.AuctionLot, error) error {
	return func(lot *schema.AuctionLot, err error) error {
		if err != nil {
			if h.LotID != nil {
				_ = r.lotReference(ctx, *h.LotID, h)
			}
			return err
		}
		describeLot(h, lot)
		r.notifier.Notify(ctx, domain.ChangeTypeLotChanged, lot.ID, logID, lot)
		return nil
	}
}

// lotReference describes the history row from the stored lot
func (r *reconciler) lotReference(ctx context.Context, lotID string, h *schema.ItemHistory) error {
	lot, err := r.store.GetLot(ctx, lotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return fmt.Errorf("%w: lot %s", domain.ErrReferenceNotFound, lotID)
	}
	describeLot(h, lot)
	return nil
}

// orderReference describes the history row from the stored order when a transition was rejected
func (r *reconciler) orderReference(ctx context.Context, orderID string, h *schema.ItemHistory, cause error) error {
	if errors.Is(cause, domain.ErrStaleUpdate) {
		if o, err := r.store.GetOrder(ctx, orderID); err == nil && o != nil {
			describeOrder(h, o)
		}
	}
	return cause
}

func (r *reconciler) notifyItem(ctx context.Context, item domain.ItemID, logID domain.LogID) {
	stored, err := r.store.GetItem(ctx, item)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to load item for change event", zap.Error(err), zap.String("item_id", item.String()))
		return
	}
	r.notifier.Notify(ctx, domain.ChangeTypeItemChanged, item.String(), logID, stored)
}

func (r *reconciler) notifyOrders(ctx context.Context, orders []schema.Order, logID domain.LogID) {
	for i := range orders {
		r.notifier.Notify(ctx, domain.ChangeTypeOrderChanged, orders[i].ID, logID, &orders[i])
	}
}
