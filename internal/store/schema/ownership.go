package schema

import (
	"time"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

// Ownership represents the ownerships table - exactly one live row per (contract, tokenId, owner)
type Ownership struct {
	// ID is the ownership identifier `<contract>:<tokenId>:<owner>`
	ID string `gorm:"column:id;primaryKey;type:text"`
	// ItemID references the owned item
	ItemID string `gorm:"column:item_id;not null;type:text;index:idx_ownerships_item_acquired,priority:1"`
	// Contract is the collection identifier
	Contract string `gorm:"column:contract;not null;type:text"`
	// TokenID is the token number within the collection
	TokenID uint64 `gorm:"column:token_id;not null"`
	// Owner is the holder address
	Owner string `gorm:"column:owner;not null;type:text;index:idx_ownerships_owner"`
	// Creator is the item creator at the time the ownership was recorded
	Creator string `gorm:"column:creator;not null;type:text"`
	// AcquiredAt is the timestamp of the deposit or mint that created the holding
	AcquiredAt time.Time `gorm:"column:acquired_at;not null;index:idx_ownerships_item_acquired,priority:2"`
}

// TableName specifies the table name for the Ownership model
func (Ownership) TableName() string {
	return "ownerships"
}

// NewOwnership creates an ownership row for the holder
func NewOwnership(id domain.OwnershipID, creator string, acquiredAt time.Time) *Ownership {
	return &Ownership{
		ID:         id.String(),
		ItemID:     id.ItemID().String(),
		Contract:   id.Contract,
		TokenID:    id.TokenID,
		Owner:      id.Owner,
		Creator:    creator,
		AcquiredAt: acquiredAt,
	}
}
