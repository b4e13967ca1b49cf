package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

// LotStatus represents the status of an English auction lot
type LotStatus string

const (
	LotStatusActive   LotStatus = "ACTIVE"
	LotStatusFinished LotStatus = "FINISHED"
	LotStatusCanceled LotStatus = "CANCELED"
	LotStatusInactive LotStatus = "INACTIVE"
)

// Terminal reports whether the lot accepts no more bids
func (s LotStatus) Terminal() bool {
	return s == LotStatusFinished || s == LotStatusCanceled
}

// AuctionLot represents the auction_lots table
type AuctionLot struct {
	ID     string    `gorm:"column:id;primaryKey;type:text"`
	Status LotStatus `gorm:"column:status;not null;type:text;index:idx_auction_lots_status"`
	Seller string    `gorm:"column:seller;not null;type:text;index:idx_auction_lots_seller"`
	// Buyer is set only on the FINISHED transition
	Buyer       *string             `gorm:"column:buyer;type:text"`
	ItemID      string              `gorm:"column:item_id;not null;type:text;index:idx_auction_lots_item"`
	Contract    string              `gorm:"column:contract;not null;type:text"`
	TokenID     uint64              `gorm:"column:token_id;not null"`
	SellValue   decimal.Decimal     `gorm:"column:sell_value;not null;type:numeric(78,18)"`
	Currency    string              `gorm:"column:currency;not null;type:text"`
	StartPrice  decimal.Decimal     `gorm:"column:start_price;not null;type:numeric(78,18)"`
	MinStep     decimal.Decimal     `gorm:"column:min_step;not null;type:numeric(78,18)"`
	BuyoutPrice decimal.NullDecimal `gorm:"column:buyout_price;type:numeric(78,18)"`
	// DurationSeconds is the declared lot duration
	DurationSeconds int64      `gorm:"column:duration_seconds;not null"`
	StartAt         time.Time  `gorm:"column:start_at;not null"`
	FinishAt        *time.Time `gorm:"column:finish_at"`

	LastBidAmount decimal.NullDecimal `gorm:"column:last_bid_amount;type:numeric(78,18)"`
	LastBidder    *string             `gorm:"column:last_bidder;type:text"`
	LastBidAt     *time.Time          `gorm:"column:last_bid_at"`

	// HammerPrice is immutable once set
	HammerPrice decimal.NullDecimal              `gorm:"column:hammer_price;type:numeric(78,18)"`
	HammerAt    *time.Time                       `gorm:"column:hammer_at"`
	Cleaned     bool                             `gorm:"column:cleaned;not null"`
	OriginFees  datatypes.JSONSlice[domain.Part] `gorm:"column:origin_fees"`

	CreatedAt     time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
	LastUpdatedAt time.Time `gorm:"column:last_updated_at;not null"`
}

// TableName specifies the table name for the AuctionLot model
func (AuctionLot) TableName() string {
	return "auction_lots"
}
