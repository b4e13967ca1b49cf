package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusActive     OrderStatus = "ACTIVE"
	OrderStatusInactive   OrderStatus = "INACTIVE"
	OrderStatusFilled     OrderStatus = "FILLED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusHistorical OrderStatus = "HISTORICAL"
)

// Terminal reports whether no further transition is accepted
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusHistorical:
		return true
	default:
		return false
	}
}

// OrderType distinguishes sell (LIST) and buy (BID) orders
type OrderType string

const (
	OrderTypeList OrderType = "LIST"
	OrderTypeBid  OrderType = "BID"
)

// Order represents the orders table - storefront listings and open bids
type Order struct {
	// ID is the on-chain listing or bid resource id
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Type is LIST or BID
	Type OrderType `gorm:"column:type;not null;type:text;index:idx_orders_item_type_status,priority:2;index:idx_orders_maker_token,priority:3"`
	// Status is the current lifecycle status
	Status OrderStatus `gorm:"column:status;not null;type:text;index:idx_orders_item_type_status,priority:3;index:idx_orders_maker_token,priority:4"`
	// ItemID references the NFT side of the order
	ItemID string `gorm:"column:item_id;not null;type:text;index:idx_orders_item_type_status,priority:1"`
	// Maker is the address that created the order
	Maker string `gorm:"column:maker;not null;type:text;index:idx_orders_maker_token,priority:1"`
	// Taker is the counterparty, set once the order is filled
	Taker *string `gorm:"column:taker;type:text"`
	// MakeType is the asset type of the make side
	MakeType domain.AssetType `gorm:"column:make_type;not null;type:text"`
	// MakeContract is the contract of the make side (NFT collection or fungible token)
	MakeContract string `gorm:"column:make_contract;not null;type:text;index:idx_orders_maker_token,priority:2"`
	// MakeTokenID is the token number of an NFT make side
	MakeTokenID uint64 `gorm:"column:make_token_id;not null"`
	// MakeValue is the quantity of the make side
	MakeValue decimal.Decimal `gorm:"column:make_value;not null;type:numeric(78,18)"`
	// TakeType is the asset type of the take side
	TakeType domain.AssetType `gorm:"column:take_type;not null;type:text"`
	// TakeContract is the contract of the take side
	TakeContract string `gorm:"column:take_contract;not null;type:text"`
	// TakeTokenID is the token number of an NFT take side
	TakeTokenID uint64 `gorm:"column:take_token_id;not null"`
	// TakeValue is the quantity of the take side
	TakeValue decimal.Decimal `gorm:"column:take_value;not null;type:numeric(78,18)"`
	// Amount is the total size of the order
	Amount decimal.Decimal `gorm:"column:amount;not null;type:numeric(78,18)"`
	// MakeStock is the currently fillable size, derived from fill and backing
	MakeStock decimal.Decimal `gorm:"column:make_stock;not null;type:numeric(78,18)"`
	// Fill is the size already filled
	Fill decimal.Decimal `gorm:"column:fill;not null;type:numeric(78,18)"`
	// Payouts are the seller payout shares
	Payouts datatypes.JSONSlice[domain.Part] `gorm:"column:payouts"`
	// OriginFees are the marketplace fee shares
	OriginFees datatypes.JSONSlice[domain.Part] `gorm:"column:origin_fees"`
	// CreatedAt is the timestamp of the activity that opened the order
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
	// LastUpdatedAt is the timestamp of the last lifecycle activity (open, cancel, fill).
	// Stock recomputes derived from ownership or balance leave it untouched.
	LastUpdatedAt time.Time `gorm:"column:last_updated_at;not null;index:idx_orders_last_updated_at"`
	// Version is bumped by every write and guards compare-and-swap updates
	Version int64 `gorm:"column:version;not null;default:0"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// MakeAsset returns the make side as a domain asset
func (o Order) MakeAsset() domain.Asset {
	return domain.Asset{Type: o.MakeType, Contract: o.MakeContract, TokenID: o.MakeTokenID, Value: o.MakeValue}
}

// TakeAsset returns the take side as a domain asset
func (o Order) TakeAsset() domain.Asset {
	return domain.Asset{Type: o.TakeType, Contract: o.TakeContract, TokenID: o.TakeTokenID, Value: o.TakeValue}
}

// Remaining returns amount - fill
func (o Order) Remaining() decimal.Decimal {
	return o.Amount.Sub(o.Fill)
}
