package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

// ItemHistory represents the item_histories table - the activity log served by the activities read path
type ItemHistory struct {
	// LogID is the provenance key of the activity
	LogID string `gorm:"column:log_id;primaryKey;type:text"`
	// Type is the activity type
	Type domain.ActivityType `gorm:"column:type;not null;type:text;index:idx_item_histories_type"`
	// Contract is the emitting contract
	Contract string `gorm:"column:contract;not null;type:text"`
	// ItemID references the item involved, when there is one
	ItemID *string `gorm:"column:item_id;type:text;index:idx_item_histories_item_ts,priority:1"`
	// From is the sending or selling account
	From *string `gorm:"column:from_address;type:text;index:idx_item_histories_from"`
	// To is the receiving or buying account
	To *string `gorm:"column:to_address;type:text;index:idx_item_histories_to"`
	// Maker is the order or lot creator
	Maker *string `gorm:"column:maker;type:text;index:idx_item_histories_maker"`
	// OrderID references the order touched by the activity
	OrderID *string `gorm:"column:order_id;type:text"`
	// LotID references the auction lot touched by the activity
	LotID *string `gorm:"column:lot_id;type:text"`
	// Amount is the quantity, price or delta carried by the activity
	Amount decimal.NullDecimal `gorm:"column:amount;type:numeric(78,18)"`
	// Timestamp is the block timestamp
	Timestamp time.Time `gorm:"column:block_time;not null;index:idx_item_histories_item_ts,priority:2;index:idx_item_histories_ts"`
	// Payload is the full activity as JSON
	Payload datatypes.JSON `gorm:"column:payload"`
}

// TableName specifies the table name for the ItemHistory model
func (ItemHistory) TableName() string {
	return "item_histories"
}
