package mapper

import (
	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

const (
	eventBidAvailable = "BidAvailable"
	eventBidCompleted = "BidCompleted"
)

// bidsMapper maps open-bid contracts into BID orders.
//
// BidAvailable fields: bidAddress, bidId, nftType, nftId, vaultType, bidPrice.
// BidCompleted fields: bidId, purchased and, for purchases, optionally seller and price.
type bidsMapper struct {
	baseMapper
}

func newBidsMapper(contract string) *bidsMapper {
	return &bidsMapper{baseMapper{
		contract: contract,
		events:   []string{eventBidAvailable, eventBidCompleted},
	}}
}

func (m *bidsMapper) Map(event domain.RawLogEvent) (domain.Activity, error) {
	f := fields(event.Fields)
	meta := m.meta(event)

	var (
		activity domain.Activity
		err      error
	)
	switch event.EventName {
	case eventBidAvailable:
		activity, err = m.bidAvailable(f, meta)
	case eventBidCompleted:
		activity, err = completed(f, meta, "bidId", "seller", func(orderID string) domain.Activity {
			return domain.CancelBidActivity{ActivityMeta: meta, OrderID: orderID}
		})
	default:
		return nil, m.unknown(event)
	}
	if err != nil {
		return nil, wrap(event, err)
	}
	return activity, nil
}

func (m *bidsMapper) bidAvailable(f fields, meta domain.ActivityMeta) (domain.Activity, error) {
	orderID, err := f.id("bidId")
	if err != nil {
		return nil, err
	}
	maker, err := f.address("bidAddress")
	if err != nil {
		return nil, err
	}
	collection, err := f.typeCollection("nftType")
	if err != nil {
		return nil, err
	}
	tokenID, err := f.uint64("nftId")
	if err != nil {
		return nil, err
	}
	currency, err := f.typeCollection("vaultType")
	if err != nil {
		return nil, err
	}
	price, err := f.decimal("bidPrice")
	if err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, illTyped("bidPrice", f["bidPrice"])
	}

	return domain.BidActivity{
		ActivityMeta: meta,
		OrderID:      orderID,
		Maker:        maker,
		Make:         domain.FungibleAsset(currency, price),
		Take:         domain.NFTAsset(domain.ItemID{Contract: collection, TokenID: tokenID}, decimal.NewFromInt(1)),
		Amount:       price,
	}, nil
}
