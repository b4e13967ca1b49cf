package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// Store defines the interface for database operations
type Store interface {
	ItemStore
	OwnershipStore
	OrderStore
	AuctionLotStore
	BalanceStore
	IdempotenceStore
	ActivityStore
	CheckpointStore
}

// ItemStore persists items. Every owner-changing write is monotonic on updated_at.
type ItemStore interface {
	// GetItem retrieves an item, nil if it doesn't exist
	GetItem(ctx context.Context, id domain.ItemID) (*schema.Item, error)
	// RecordMint stores the immutable mint facts (creator, royalties, metadata, mint time).
	// A missing item is created owned by the minter. Existing ownerships of the item take the creator.
	RecordMint(ctx context.Context, input RecordMintInput) error
	// SetItemOwner sets the owner if the item wasn't updated after ts, creating the item on first sight.
	// Returns false when the write was stale.
	SetItemOwner(ctx context.Context, id domain.ItemID, owner string, ts time.Time) (bool, error)
	// ReleaseItemOwner stamps the item at ts and clears the owner when it equals from.
	// Returns false when the write was stale.
	ReleaseItemOwner(ctx context.Context, id domain.ItemID, from string, ts time.Time) (bool, error)
	// MarkItemDeleted tombstones the item (owner=null, deleted=true) if it wasn't updated after ts.
	// Returns false when the write was stale.
	MarkItemDeleted(ctx context.Context, id domain.ItemID, ts time.Time) (bool, error)
	// ListItems lists live items matching the filter ordered by updated_at
	ListItems(ctx context.Context, filter ItemFilter, q continuation.PageQuery) ([]schema.Item, error)
}

// OwnershipStore persists ownerships
type OwnershipStore interface {
	// GetOwnership retrieves an ownership, nil if it doesn't exist
	GetOwnership(ctx context.Context, id domain.OwnershipID) (*schema.Ownership, error)
	// UpsertOwnership creates the ownership or refreshes it when the new acquisition is not older.
	// Returns false when the stored row is newer.
	UpsertOwnership(ctx context.Context, ownership *schema.Ownership) (bool, error)
	// DeleteOwnership deletes the ownership if it was acquired at or before ts
	DeleteOwnership(ctx context.Context, id domain.OwnershipID, ts time.Time) (bool, error)
	// DeleteOwnershipsByItem deletes every ownership of the item acquired at or before ts and returns them
	DeleteOwnershipsByItem(ctx context.Context, id domain.ItemID, ts time.Time) ([]schema.Ownership, error)
	// FindOwnershipsByItem returns all live ownerships of the item
	FindOwnershipsByItem(ctx context.Context, id domain.ItemID) ([]schema.Ownership, error)
	// ListOwnershipsByItem lists ownerships of the item ordered by acquired_at
	ListOwnershipsByItem(ctx context.Context, id domain.ItemID, q continuation.PageQuery) ([]schema.Ownership, error)
	// ListOwnershipsByOwner lists ownerships held by owner ordered by acquired_at
	ListOwnershipsByOwner(ctx context.Context, owner string, q continuation.PageQuery) ([]schema.Ownership, error)
}

// OrderStore persists orders. Updates are compare-and-swap on the version read by the caller.
type OrderStore interface {
	// GetOrder retrieves an order, nil if it doesn't exist
	GetOrder(ctx context.Context, id string) (*schema.Order, error)
	// CreateOrder inserts the order if absent. Returns false when it already existed.
	CreateOrder(ctx context.Context, order *schema.Order) (bool, error)
	// UpdateOrderIfMonotonic writes the mutable fields of next when the stored row still has the
	// version, status and fill of current and last_updated_at <= next.LastUpdatedAt.
	// On success next.Version is the new version. Returns false otherwise.
	UpdateOrderIfMonotonic(ctx context.Context, next *schema.Order, current *schema.Order) (bool, error)
	// UpdateOrderStock sets stock and status of a non-terminal order still at current.Version.
	// last_updated_at is left untouched.
	UpdateOrderStock(ctx context.Context, current *schema.Order, stock decimal.Decimal, status schema.OrderStatus) (bool, error)
	// FindListOrdersByItem returns LIST orders of the item in the given statuses last updated at or before ts.
	// An empty maker matches every maker, a zero ts every order.
	FindListOrdersByItem(ctx context.Context, itemID string, maker string, statuses []schema.OrderStatus, ts time.Time) ([]schema.Order, error)
	// FindBidsByMakerAndToken pages through ACTIVE and INACTIVE BID orders of maker backed by token,
	// ordered by created_at
	FindBidsByMakerAndToken(ctx context.Context, maker string, token string, q continuation.PageQuery) ([]schema.Order, error)
	// ListBidMakers returns distinct (maker, token) pairs with open bids, after the given key
	ListBidMakers(ctx context.Context, after *BalanceKey, limit int) ([]BalanceKey, error)
	// ListOrdersByItem lists orders of the item ordered by last_updated_at. A nil type matches both.
	ListOrdersByItem(ctx context.Context, itemID string, orderType *schema.OrderType, q continuation.PageQuery) ([]schema.Order, error)
}

// AuctionLotStore persists English auction lots. Updates are compare-and-swap on (last_updated_at, status).
type AuctionLotStore interface {
	// GetLot retrieves a lot, nil if it doesn't exist
	GetLot(ctx context.Context, id string) (*schema.AuctionLot, error)
	// CreateLot inserts the lot if absent. Returns false when it already existed.
	CreateLot(ctx context.Context, lot *schema.AuctionLot) (bool, error)
	// UpdateLotIfMonotonic writes the mutable lot fields when the stored row has
	// last_updated_at <= lot.LastUpdatedAt and status = expected. Returns false otherwise.
	UpdateLotIfMonotonic(ctx context.Context, lot *schema.AuctionLot, expected schema.LotStatus) (bool, error)
	// ListLots lists lots ordered by last_updated_at. A nil status matches all.
	ListLots(ctx context.Context, status *schema.LotStatus, q continuation.PageQuery) ([]schema.AuctionLot, error)
}

// BalanceStore persists fungible balances
type BalanceStore interface {
	// ApplyBalanceDelta records the history row and atomically increments the materialized balance.
	// A history row already present for the log id makes the call a no-op (applied=false).
	// Returns the balance after the call.
	ApplyBalanceDelta(ctx context.Context, history *schema.BalanceHistory) (decimal.Decimal, bool, error)
	// GetBalance retrieves a balance, nil if it doesn't exist
	GetBalance(ctx context.Context, owner string, token string) (*schema.Balance, error)
}

// IdempotenceStore tracks which logs have been applied
type IdempotenceStore interface {
	// IsLogSeen reports whether the log was already applied
	IsLogSeen(ctx context.Context, logID domain.LogID) (bool, error)
	// MarkLogSeen records the log as applied
	MarkLogSeen(ctx context.Context, logID domain.LogID, at time.Time) error
}

// ActivityStore persists the activity log
type ActivityStore interface {
	// SaveActivity inserts the history row if absent
	SaveActivity(ctx context.Context, history *schema.ItemHistory) error
	// ListActivities lists activities ordered by timestamp
	ListActivities(ctx context.Context, filter ActivityFilter, q continuation.PageQuery) ([]schema.ItemHistory, error)
}

// CheckpointStore persists where an interrupted background pass should resume
type CheckpointStore interface {
	// GetCheckpoint retrieves a checkpoint, "" if it doesn't exist
	GetCheckpoint(ctx context.Context, key string) (string, error)
	// SetCheckpoint creates or overwrites a checkpoint
	SetCheckpoint(ctx context.Context, key, value string, at time.Time) error
	// DeleteCheckpoint removes a checkpoint
	DeleteCheckpoint(ctx context.Context, key string) error
}

// RecordMintInput holds the immutable facts of a mint
type RecordMintInput struct {
	ItemID    domain.ItemID
	Owner     string
	Creator   string
	Royalties []domain.Part
	Meta      map[string]string
	MintedAt  time.Time
}

// BalanceKey identifies a balance by owner and token
type BalanceKey struct {
	Owner string
	Token string
}

// ItemFilter narrows an item listing; empty fields match everything
type ItemFilter struct {
	// Owner matches items held by the address
	Owner string
	// Collection matches items of a single contract
	Collection string
	// Creator matches items minted by the address
	Creator string
}

// ActivityFilter narrows an activity listing
type ActivityFilter struct {
	// ItemID matches activities of a single item
	ItemID string
	// User matches activities where the address is from, to or maker
	User string
	// Types matches the given activity types
	Types []domain.ActivityType
}
