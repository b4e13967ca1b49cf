package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

// Item represents the items table - one row per NFT ever seen by the indexer
type Item struct {
	// ID is the item identifier `<contract>:<tokenId>`
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Contract is the collection identifier (e.g., A.0b2a3299cc857e29.TopShot)
	Contract string `gorm:"column:contract;not null;type:text;uniqueIndex:idx_items_contract_token,priority:1"`
	// TokenID is the token number within the collection
	TokenID uint64 `gorm:"column:token_id;not null;uniqueIndex:idx_items_contract_token,priority:2"`
	// Collection is the collection the item belongs to
	Collection string `gorm:"column:collection;not null;type:text"`
	// Creator is the address that minted the item, empty until the mint is indexed
	Creator string `gorm:"column:creator;not null;type:text;index:idx_items_creator"`
	// Owner is the current owner, nil when burned or in transit
	Owner *string `gorm:"column:owner;type:text;index:idx_items_owner"`
	// Royalties declared at mint time
	Royalties datatypes.JSONSlice[domain.Part] `gorm:"column:royalties"`
	// Meta is the opaque metadata reference captured from the mint event
	Meta datatypes.JSONMap `gorm:"column:meta"`
	// MintedAt is the timestamp of the mint event
	MintedAt *time.Time `gorm:"column:minted_at"`
	// UpdatedAt is the timestamp of the last applied activity, used for monotonic writes
	UpdatedAt time.Time `gorm:"column:updated_at;not null;index:idx_items_updated_at;autoUpdateTime:false"`
	// Deleted is set once the item is burned
	Deleted bool `gorm:"column:deleted;not null"`
}

// TableName specifies the table name for the Item model
func (Item) TableName() string {
	return "items"
}

// ItemIdentifier returns the domain identifier of the item
func (i Item) ItemIdentifier() domain.ItemID {
	return domain.ItemID{Contract: i.Contract, TokenID: i.TokenID}
}

// NewItem creates an item row keyed by the domain identifier
func NewItem(id domain.ItemID, updatedAt time.Time) *Item {
	return &Item{
		ID:         id.String(),
		Contract:   id.Contract,
		TokenID:    id.TokenID,
		Collection: id.Contract,
		UpdatedAt:  updatedAt,
	}
}
