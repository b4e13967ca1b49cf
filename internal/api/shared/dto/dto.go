package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// ItemResponse represents an item
type ItemResponse struct {
	ID         string            `json:"id"`
	Contract   string            `json:"contract"`
	TokenID    uint64            `json:"token_id"`
	Collection string            `json:"collection"`
	Creator    string            `json:"creator"`
	Owner      *string           `json:"owner"`
	Royalties  []domain.Part     `json:"royalties"`
	Meta       map[string]string `json:"meta,omitempty"`
	MintedAt   *time.Time        `json:"minted_at,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Deleted    bool              `json:"deleted"`
}

// OwnershipResponse represents a single holding of an item
type OwnershipResponse struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"item_id"`
	Contract   string    `json:"contract"`
	TokenID    uint64    `json:"token_id"`
	Owner      string    `json:"owner"`
	Creator    string    `json:"creator"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// OrderResponse represents a LIST or BID order
type OrderResponse struct {
	ID            string             `json:"id"`
	Type          schema.OrderType   `json:"type"`
	Status        schema.OrderStatus `json:"status"`
	ItemID        string             `json:"item_id"`
	Maker         string             `json:"maker"`
	Taker         *string            `json:"taker,omitempty"`
	Make          domain.Asset       `json:"make"`
	Take          domain.Asset       `json:"take"`
	Amount        decimal.Decimal    `json:"amount"`
	MakeStock     decimal.Decimal    `json:"make_stock"`
	Fill          decimal.Decimal    `json:"fill"`
	Payouts       []domain.Part      `json:"payouts"`
	OriginFees    []domain.Part      `json:"origin_fees"`
	CreatedAt     time.Time          `json:"created_at"`
	LastUpdatedAt time.Time          `json:"last_updated_at"`
}

// LotResponse represents an English auction lot
type LotResponse struct {
	ID            string              `json:"id"`
	Status        schema.LotStatus    `json:"status"`
	Seller        string              `json:"seller"`
	Buyer         *string             `json:"buyer,omitempty"`
	ItemID        string              `json:"item_id"`
	SellValue     decimal.Decimal     `json:"sell_value"`
	Currency      string              `json:"currency"`
	StartPrice    decimal.Decimal     `json:"start_price"`
	MinStep       decimal.Decimal     `json:"min_step"`
	BuyoutPrice   decimal.NullDecimal `json:"buyout_price"`
	StartAt       time.Time           `json:"start_at"`
	FinishAt      *time.Time          `json:"finish_at,omitempty"`
	LastBidAmount decimal.NullDecimal `json:"last_bid_amount"`
	LastBidder    *string             `json:"last_bidder,omitempty"`
	HammerPrice   decimal.NullDecimal `json:"hammer_price"`
	HammerAt      *time.Time          `json:"hammer_at,omitempty"`
	Cleaned       bool                `json:"cleaned"`
	LastUpdatedAt time.Time           `json:"last_updated_at"`
}

// ActivityResponse represents an entry of the activity log
type ActivityResponse struct {
	ID        string              `json:"id"`
	Type      domain.ActivityType `json:"type"`
	Contract  string              `json:"contract"`
	ItemID    *string             `json:"item_id,omitempty"`
	From      *string             `json:"from,omitempty"`
	To        *string             `json:"to,omitempty"`
	Maker     *string             `json:"maker,omitempty"`
	OrderID   *string             `json:"order_id,omitempty"`
	LotID     *string             `json:"lot_id,omitempty"`
	Amount    decimal.NullDecimal `json:"amount"`
	Timestamp time.Time           `json:"timestamp"`
}

// ItemListResponse is a page of items
type ItemListResponse = continuation.Page[ItemResponse]

// OwnershipListResponse is a page of ownerships
type OwnershipListResponse = continuation.Page[OwnershipResponse]

// OrderListResponse is a page of orders
type OrderListResponse = continuation.Page[OrderResponse]

// LotListResponse is a page of lots
type LotListResponse = continuation.Page[LotResponse]

// ActivityListResponse is a page of activities
type ActivityListResponse = continuation.Page[ActivityResponse]
