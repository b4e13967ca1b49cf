package reconciler

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/logger"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// newHistory builds the activity log row from the fields the activity carries itself.
// Order and lot activities are completed by the handlers once the aggregate is loaded.
func (r *reconciler) newHistory(activity domain.Activity) *schema.ItemHistory {
	meta := activity.Meta()
	h := &schema.ItemHistory{
		LogID:     string(meta.LogID),
		Type:      activity.Type(),
		Contract:  meta.Contract,
		Timestamp: meta.Timestamp,
	}

	switch a := activity.(type) {
	case domain.MintActivity:
		setItem(h, a.Item())
		h.To = ptr(a.Owner)
		h.Maker = ptr(a.Creator)
	case domain.BurnActivity:
		setItem(h, a.Item())
	case domain.TransferActivity:
		setItem(h, a.Item())
		h.From = ptr(a.From)
		h.To = ptr(a.To)
	case domain.WithdrawActivity:
		setItem(h, a.Item())
		h.From = ptr(a.From)
	case domain.DepositActivity:
		setItem(h, a.Item())
		h.To = ptr(a.To)
	case domain.ListActivity:
		if item, ok := a.Make.ItemID(); ok {
			setItem(h, item)
		}
		h.Maker = ptr(a.Maker)
		h.From = ptr(a.Maker)
		h.OrderID = ptr(a.OrderID)
		h.Amount = decimal.NewNullDecimal(a.Take.Value)
	case domain.BidActivity:
		if item, ok := a.Take.ItemID(); ok {
			setItem(h, item)
		}
		h.Maker = ptr(a.Maker)
		h.OrderID = ptr(a.OrderID)
		h.Amount = decimal.NewNullDecimal(a.Make.Value)
	case domain.CancelListActivity:
		h.OrderID = ptr(a.OrderID)
	case domain.CancelBidActivity:
		h.OrderID = ptr(a.OrderID)
	case domain.SellActivity:
		h.OrderID = ptr(a.OrderID)
		if a.Buyer != "" {
			h.To = ptr(a.Buyer)
		}
		if !a.Price.IsZero() {
			h.Amount = decimal.NewNullDecimal(a.Price)
		}
	case domain.LotAvailableActivity:
		if item, ok := a.Sell.ItemID(); ok {
			setItem(h, item)
		}
		h.LotID = ptr(a.LotID)
		h.Maker = ptr(a.Seller)
		h.From = ptr(a.Seller)
		h.Amount = decimal.NewNullDecimal(a.StartPrice)
	case domain.LotCompletedActivity:
		h.LotID = ptr(a.LotID)
		h.To = a.Buyer
		h.Amount = decimal.NewNullDecimal(a.HammerPrice)
	case domain.LotCanceledActivity:
		h.LotID = ptr(a.LotID)
	case domain.LotEndTimeChangedActivity:
		h.LotID = ptr(a.LotID)
	case domain.LotCleanedActivity:
		h.LotID = ptr(a.LotID)
	case domain.BidOpenedActivity:
		h.LotID = ptr(a.LotID)
		h.From = ptr(a.Bidder)
		h.Amount = decimal.NewNullDecimal(a.Amount)
	case domain.BidIncreasedActivity:
		h.LotID = ptr(a.LotID)
		h.From = ptr(a.Bidder)
		h.Amount = decimal.NewNullDecimal(a.Amount)
	case domain.BidClosedActivity:
		h.LotID = ptr(a.LotID)
		h.To = ptr(a.Bidder)
	case domain.BalanceChangedActivity:
		h.From = ptr(a.Owner)
		h.Amount = decimal.NewNullDecimal(a.Delta)
	}

	payload, err := r.json.Marshal(activity)
	if err != nil {
		logger.Warn("Failed to marshal activity payload", zap.Error(err), logger.LogID(meta.LogID))
		return h
	}
	h.Payload = datatypes.JSON(payload)
	return h
}

// describeOrder fills the item and counterparties of an order activity
func describeOrder(h *schema.ItemHistory, o *schema.Order) {
	if h.ItemID == nil {
		h.ItemID = ptr(o.ItemID)
	}
	if h.Maker == nil {
		h.Maker = ptr(o.Maker)
	}
	if h.Type == domain.ActivityTypeSell && h.From == nil {
		h.From = ptr(o.Maker)
	}
}

// describeLot fills the item and seller of a lot activity
func describeLot(h *schema.ItemHistory, lot *schema.AuctionLot) {
	if h.ItemID == nil {
		h.ItemID = ptr(lot.ItemID)
	}
	if h.Maker == nil {
		h.Maker = ptr(lot.Seller)
	}
}

func setItem(h *schema.ItemHistory, item domain.ItemID) {
	h.ItemID = ptr(item.String())
}

func ptr[T any](v T) *T {
	return &v
}
