package mapper

import (
	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

const (
	eventLotAvailable      = "LotAvailable"
	eventLotCompleted      = "LotCompleted"
	eventLotCanceled       = "LotCanceled"
	eventLotEndTimeChanged = "LotEndTimeChanged"
	eventLotCleaned        = "LotCleaned"
	eventOpenBid           = "OpenBid"
	eventIncreaseBid       = "IncreaseBid"
	eventCloseBid          = "CloseBid"
)

// auctionMapper maps English auction lots and their bids
type auctionMapper struct {
	baseMapper
}

func newAuctionMapper(contract string) *auctionMapper {
	return &auctionMapper{baseMapper{
		contract: contract,
		events: []string{
			eventLotAvailable, eventLotCompleted, eventLotCanceled, eventLotEndTimeChanged,
			eventLotCleaned, eventOpenBid, eventIncreaseBid, eventCloseBid,
		},
	}}
}

func (m *auctionMapper) Map(event domain.RawLogEvent) (domain.Activity, error) {
	f := fields(event.Fields)
	meta := m.meta(event)

	var (
		activity domain.Activity
		err      error
	)
	switch event.EventName {
	case eventLotAvailable:
		activity, err = m.lotAvailable(f, meta)
	case eventLotCompleted:
		activity, err = m.lotCompleted(f, meta)
	case eventLotCanceled:
		var lotID string
		lotID, err = f.id("lotId")
		activity = domain.LotCanceledActivity{ActivityMeta: meta, LotID: lotID}
	case eventLotEndTimeChanged:
		activity, err = m.lotEndTimeChanged(f, meta)
	case eventLotCleaned:
		var lotID string
		lotID, err = f.id("lotId")
		activity = domain.LotCleanedActivity{ActivityMeta: meta, LotID: lotID}
	case eventOpenBid, eventIncreaseBid:
		activity, err = m.bid(event.EventName, f, meta)
	case eventCloseBid:
		activity, err = m.closeBid(f, meta)
	default:
		return nil, m.unknown(event)
	}
	if err != nil {
		return nil, wrap(event, err)
	}
	return activity, nil
}

func (m *auctionMapper) lotAvailable(f fields, meta domain.ActivityMeta) (domain.Activity, error) {
	lotID, err := f.id("lotId")
	if err != nil {
		return nil, err
	}
	seller, err := f.address("seller")
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
	currency, err := f.typeCollection("bidType")
	if err != nil {
		return nil, err
	}
	startPrice, err := f.decimal("minimumBid")
	if err != nil {
		return nil, err
	}
	minStep, err := f.decimal("increment")
	if err != nil {
		return nil, err
	}
	buyoutPrice, err := f.optionalDecimal("buyoutPrice")
	if err != nil {
		return nil, err
	}
	startAt, err := f.timestamp("startAt")
	if err != nil {
		return nil, err
	}
	duration, err := f.duration("duration")
	if err != nil {
		return nil, err
	}
	originFees, err := f.parts("originFees")
	if err != nil {
		return nil, err
	}

	return domain.LotAvailableActivity{
		ActivityMeta: meta,
		LotID:        lotID,
		Seller:       seller,
		Sell:         domain.NFTAsset(domain.ItemID{Contract: collection, TokenID: tokenID}, decimal.NewFromInt(1)),
		Currency:     currency,
		StartPrice:   startPrice,
		MinStep:      minStep,
		BuyoutPrice:  buyoutPrice,
		Duration:     duration,
		StartAt:      startAt,
		OriginFees:   originFees,
	}, nil
}

func (m *auctionMapper) lotCompleted(f fields, meta domain.ActivityMeta) (domain.Activity, error) {
	lotID, err := f.id("lotId")
	if err != nil {
		return nil, err
	}
	buyer, err := f.optionalAddress("winner")
	if err != nil {
		return nil, err
	}
	hammerPrice, err := f.optionalDecimal("hammerPrice")
	if err != nil {
		return nil, err
	}

	completed := domain.LotCompletedActivity{ActivityMeta: meta, LotID: lotID, Buyer: buyer}
	if hammerPrice != nil {
		completed.HammerPrice = *hammerPrice
	}
	return completed, nil
}

func (m *auctionMapper) lotEndTimeChanged(f fields, meta domain.ActivityMeta) (domain.Activity, error) {
	lotID, err := f.id("lotId")
	if err != nil {
		return nil, err
	}
	finishAt, err := f.timestamp("finishAt")
	if err != nil {
		return nil, err
	}
	return domain.LotEndTimeChangedActivity{ActivityMeta: meta, LotID: lotID, FinishAt: finishAt}, nil
}

func (m *auctionMapper) bid(eventName string, f fields, meta domain.ActivityMeta) (domain.Activity, error) {
	lotID, err := f.id("lotId")
	if err != nil {
		return nil, err
	}
	bidder, err := f.address("bidder")
	if err != nil {
		return nil, err
	}
	amount, err := f.decimal("amount")
	if err != nil {
		return nil, err
	}

	if eventName == eventOpenBid {
		return domain.BidOpenedActivity{ActivityMeta: meta, LotID: lotID, Bidder: bidder, Amount: amount}, nil
	}
	return domain.BidIncreasedActivity{ActivityMeta: meta, LotID: lotID, Bidder: bidder, Amount: amount}, nil
}

func (m *auctionMapper) closeBid(f fields, meta domain.ActivityMeta) (domain.Activity, error) {
	lotID, err := f.id("lotId")
	if err != nil {
		return nil, err
	}
	bidder, err := f.address("bidder")
	if err != nil {
		return nil, err
	}
	return domain.BidClosedActivity{ActivityMeta: meta, LotID: lotID, Bidder: bidder}, nil
}
