package mapper

import (
	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

const (
	eventListingAvailable = "ListingAvailable"
	eventListingCompleted = "ListingCompleted"
)

// storefrontMapper maps NFTStorefront listings into LIST orders.
//
// ListingAvailable fields: storefrontAddress, listingResourceID, nftType, nftID,
// ftVaultType, price and optionally payouts/originFees as [{address, amount}].
// ListingCompleted fields: listingResourceID, purchased and, for purchases,
// optionally buyer and price.
type storefrontMapper struct {
	baseMapper
}

func newStorefrontMapper(contract string) *storefrontMapper {
	return &storefrontMapper{baseMapper{
		contract: contract,
		events:   []string{eventListingAvailable, eventListingCompleted},
	}}
}

func (m *storefrontMapper) Map(event domain.RawLogEvent) (domain.Activity, error) {
	f := fields(event.Fields)
	meta := m.meta(event)

	var (
		activity domain.Activity
		err      error
	)
	switch event.EventName {
	case eventListingAvailable:
		activity, err = m.listingAvailable(f, meta)
	case eventListingCompleted:
		activity, err = completed(f, meta, "listingResourceID", "buyer", func(orderID string) domain.Activity {
			return domain.CancelListActivity{ActivityMeta: meta, OrderID: orderID}
		})
	default:
		return nil, m.unknown(event)
	}
	if err != nil {
		return nil, wrap(event, err)
	}
	return activity, nil
}

func (m *storefrontMapper) listingAvailable(f fields, meta domain.ActivityMeta) (domain.Activity, error) {
	orderID, err := f.id("listingResourceID")
	if err != nil {
		return nil, err
	}
	maker, err := f.address("storefrontAddress")
	if err != nil {
		return nil, err
	}
	collection, err := f.typeCollection("nftType")
	if err != nil {
		return nil, err
	}
	tokenID, err := f.uint64("nftID")
	if err != nil {
		return nil, err
	}
	currency, err := f.typeCollection("ftVaultType")
	if err != nil {
		return nil, err
	}
	price, err := f.decimal("price")
	if err != nil {
		return nil, err
	}
	payouts, err := f.parts("payouts")
	if err != nil {
		return nil, err
	}
	originFees, err := f.parts("originFees")
	if err != nil {
		return nil, err
	}

	one := decimal.NewFromInt(1)
	return domain.ListActivity{
		ActivityMeta: meta,
		OrderID:      orderID,
		Maker:        maker,
		Make:         domain.NFTAsset(domain.ItemID{Contract: collection, TokenID: tokenID}, one),
		Take:         domain.FungibleAsset(currency, price),
		Amount:       one,
		Payouts:      payouts,
		OriginFees:   originFees,
	}, nil
}

// completed maps a ListingCompleted/BidCompleted event: a purchase settles the
// order, anything else withdraws it
func completed(f fields, meta domain.ActivityMeta, idField, counterpartyField string, cancel func(orderID string) domain.Activity) (domain.Activity, error) {
	orderID, err := f.id(idField)
	if err != nil {
		return nil, err
	}
	purchased, err := f.bool("purchased")
	if err != nil {
		return nil, err
	}
	if !purchased {
		return cancel(orderID), nil
	}

	counterparty, err := f.optionalAddress(counterpartyField)
	if err != nil {
		return nil, err
	}
	price, err := f.optionalDecimal("price")
	if err != nil {
		return nil, err
	}

	sell := domain.SellActivity{ActivityMeta: meta, OrderID: orderID}
	if counterparty != nil {
		sell.Buyer = *counterparty
	}
	if price != nil {
		sell.Price = *price
	}
	return sell, nil
}
