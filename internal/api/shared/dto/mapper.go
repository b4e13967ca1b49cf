package dto

import (
	"fmt"

	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// MapItemToDTO maps an item row
func MapItemToDTO(item *schema.Item) *ItemResponse {
	resp := &ItemResponse{
		ID:         item.ID,
		Contract:   item.Contract,
		TokenID:    item.TokenID,
		Collection: item.Collection,
		Creator:    item.Creator,
		Owner:      item.Owner,
		Royalties:  parts(item.Royalties),
		MintedAt:   item.MintedAt,
		UpdatedAt:  item.UpdatedAt,
		Deleted:    item.Deleted,
	}
	if len(item.Meta) > 0 {
		resp.Meta = make(map[string]string, len(item.Meta))
		for k, v := range item.Meta {
			resp.Meta[k] = fmt.Sprint(v)
		}
	}
	return resp
}

// MapOwnershipToDTO maps an ownership row
func MapOwnershipToDTO(o *schema.Ownership) *OwnershipResponse {
	return &OwnershipResponse{
		ID:         o.ID,
		ItemID:     o.ItemID,
		Contract:   o.Contract,
		TokenID:    o.TokenID,
		Owner:      o.Owner,
		Creator:    o.Creator,
		AcquiredAt: o.AcquiredAt,
	}
}

// MapOrderToDTO maps an order row
func MapOrderToDTO(o *schema.Order) *OrderResponse {
	return &OrderResponse{
		ID:            o.ID,
		Type:          o.Type,
		Status:        o.Status,
		ItemID:        o.ItemID,
		Maker:         o.Maker,
		Taker:         o.Taker,
		Make:          o.MakeAsset(),
		Take:          o.TakeAsset(),
		Amount:        o.Amount,
		MakeStock:     o.MakeStock,
		Fill:          o.Fill,
		Payouts:       parts(o.Payouts),
		OriginFees:    parts(o.OriginFees),
		CreatedAt:     o.CreatedAt,
		LastUpdatedAt: o.LastUpdatedAt,
	}
}

// MapLotToDTO maps an auction lot row
func MapLotToDTO(l *schema.AuctionLot) *LotResponse {
	return &LotResponse{
		ID:            l.ID,
		Status:        l.Status,
		Seller:        l.Seller,
		Buyer:         l.Buyer,
		ItemID:        l.ItemID,
		SellValue:     l.SellValue,
		Currency:      l.Currency,
		StartPrice:    l.StartPrice,
		MinStep:       l.MinStep,
		BuyoutPrice:   l.BuyoutPrice,
		StartAt:       l.StartAt,
		FinishAt:      l.FinishAt,
		LastBidAmount: l.LastBidAmount,
		LastBidder:    l.LastBidder,
		HammerPrice:   l.HammerPrice,
		HammerAt:      l.HammerAt,
		Cleaned:       l.Cleaned,
		LastUpdatedAt: l.LastUpdatedAt,
	}
}

// MapActivityToDTO maps an activity log row
func MapActivityToDTO(h *schema.ItemHistory) *ActivityResponse {
	return &ActivityResponse{
		ID:        h.LogID,
		Type:      h.Type,
		Contract:  h.Contract,
		ItemID:    h.ItemID,
		From:      h.From,
		To:        h.To,
		Maker:     h.Maker,
		OrderID:   h.OrderID,
		LotID:     h.LotID,
		Amount:    h.Amount,
		Timestamp: h.Timestamp,
	}
}

// MapPage maps a page of rows, deriving the continuation from the last row
func MapPage[R any, T any](rows []R, limit int, key func(R) continuation.Continuation, mapFn func(*R) *T) continuation.Page[T] {
	page := continuation.NextPage(rows, limit, key)
	out := continuation.Page[T]{Items: make([]T, 0, len(rows)), Continuation: page.Continuation}
	for i := range rows {
		out.Items = append(out.Items, *mapFn(&rows[i]))
	}
	return out
}

func parts(p []domain.Part) []domain.Part {
	if p == nil {
		return []domain.Part{}
	}
	return p
}
