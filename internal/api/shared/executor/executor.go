package executor

import (
	"context"
	"fmt"

	"github.com/feral-file/ff-market-indexer/internal/api/shared/dto"
	apierrors "github.com/feral-file/ff-market-indexer/internal/api/shared/errors"
	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/metadata"
	"github.com/feral-file/ff-market-indexer/internal/store"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// Executor is the interface for the API executor
type Executor interface {
	// GetItem retrieves a single item
	GetItem(ctx context.Context, id domain.ItemID) (*dto.ItemResponse, error)

	// ListItems retrieves items most recently updated first, narrowed by owner, collection and creator
	ListItems(ctx context.Context, filter store.ItemFilter, q continuation.PageQuery) (*dto.ItemListResponse, error)

	// GetItemMetadata resolves the metadata of an item and its ETag
	GetItemMetadata(ctx context.Context, id domain.ItemID) (*metadata.Metadata, string, error)

	// ListOwnershipsByItem retrieves the holders of an item
	ListOwnershipsByItem(ctx context.Context, id domain.ItemID, q continuation.PageQuery) (*dto.OwnershipListResponse, error)

	// ListOwnershipsByOwner retrieves the holdings of an address
	ListOwnershipsByOwner(ctx context.Context, owner string, q continuation.PageQuery) (*dto.OwnershipListResponse, error)

	// GetOrder retrieves a single order
	GetOrder(ctx context.Context, id string) (*dto.OrderResponse, error)

	// ListOrdersByItem retrieves the orders of an item, optionally of one type
	ListOrdersByItem(ctx context.Context, id domain.ItemID, orderType *schema.OrderType, q continuation.PageQuery) (*dto.OrderListResponse, error)

	// GetLot retrieves a single auction lot
	GetLot(ctx context.Context, id string) (*dto.LotResponse, error)

	// ListLots retrieves auction lots, optionally of one status
	ListLots(ctx context.Context, status *schema.LotStatus, q continuation.PageQuery) (*dto.LotListResponse, error)

	// ListActivities retrieves the activity log
	ListActivities(ctx context.Context, filter store.ActivityFilter, q continuation.PageQuery) (*dto.ActivityListResponse, error)
}

type executor struct {
	store    store.Store
	metadata metadata.Registry
	hasher   *metadata.Hasher
}

func NewExecutor(store store.Store, registry metadata.Registry, hasher *metadata.Hasher) Executor {
	return &executor{store: store, metadata: registry, hasher: hasher}
}

func (e *executor) GetItem(ctx context.Context, id domain.ItemID) (*dto.ItemResponse, error) {
	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to get item: %v", err))
	}
	if item == nil {
		return nil, nil
	}
	return dto.MapItemToDTO(item), nil
}

func (e *executor) ListItems(ctx context.Context, filter store.ItemFilter, q continuation.PageQuery) (*dto.ItemListResponse, error) {
	items, err := e.store.ListItems(ctx, filter, q)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to list items: %v", err))
	}

	page := dto.MapPage(items, q.Limit, itemKey, dto.MapItemToDTO)
	return &page, nil
}

func (e *executor) GetItemMetadata(ctx context.Context, id domain.ItemID) (*metadata.Metadata, string, error) {
	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return nil, "", apierrors.NewDatabaseError(fmt.Sprintf("Failed to get item: %v", err))
	}
	if item == nil {
		return nil, "", nil
	}

	meta, err := e.metadata.Fetch(ctx, item)
	if err != nil {
		return nil, "", apierrors.NewInternalError(fmt.Sprintf("Failed to resolve metadata: %v", err))
	}

	etag, err := e.hasher.Hash(meta)
	if err != nil {
		return nil, "", apierrors.NewInternalError(fmt.Sprintf("Failed to hash metadata: %v", err))
	}
	return meta, etag, nil
}

func (e *executor) ListOwnershipsByItem(ctx context.Context, id domain.ItemID, q continuation.PageQuery) (*dto.OwnershipListResponse, error) {
	ownerships, err := e.store.ListOwnershipsByItem(ctx, id, q)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to list ownerships: %v", err))
	}

	page := dto.MapPage(ownerships, q.Limit, ownershipKey, dto.MapOwnershipToDTO)
	return &page, nil
}

func (e *executor) ListOwnershipsByOwner(ctx context.Context, owner string, q continuation.PageQuery) (*dto.OwnershipListResponse, error) {
	ownerships, err := e.store.ListOwnershipsByOwner(ctx, owner, q)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to list ownerships: %v", err))
	}

	page := dto.MapPage(ownerships, q.Limit, ownershipKey, dto.MapOwnershipToDTO)
	return &page, nil
}

func (e *executor) GetOrder(ctx context.Context, id string) (*dto.OrderResponse, error) {
	o, err := e.store.GetOrder(ctx, id)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to get order: %v", err))
	}
	if o == nil {
		return nil, nil
	}
	return dto.MapOrderToDTO(o), nil
}

func (e *executor) ListOrdersByItem(ctx context.Context, id domain.ItemID, orderType *schema.OrderType, q continuation.PageQuery) (*dto.OrderListResponse, error) {
	orders, err := e.store.ListOrdersByItem(ctx, id.String(), orderType, q)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to list orders: %v", err))
	}

	page := dto.MapPage(orders, q.Limit, orderKey, dto.MapOrderToDTO)
	return &page, nil
}

func (e *executor) GetLot(ctx context.Context, id string) (*dto.LotResponse, error) {
	lot, err := e.store.GetLot(ctx, id)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to get lot: %v", err))
	}
	if lot == nil {
		return nil, nil
	}
	return dto.MapLotToDTO(lot), nil
}

func (e *executor) ListLots(ctx context.Context, status *schema.LotStatus, q continuation.PageQuery) (*dto.LotListResponse, error) {
	lots, err := e.store.ListLots(ctx, status, q)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to list lots: %v", err))
	}

	page := dto.MapPage(lots, q.Limit, lotKey, dto.MapLotToDTO)
	return &page, nil
}

func (e *executor) ListActivities(ctx context.Context, filter store.ActivityFilter, q continuation.PageQuery) (*dto.ActivityListResponse, error) {
	activities, err := e.store.ListActivities(ctx, filter, q)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to list activities: %v", err))
	}

	page := dto.MapPage(activities, q.Limit, activityKey, dto.MapActivityToDTO)
	return &page, nil
}

// continuation keys, matching the sort columns of the store reads

func itemKey(i schema.Item) continuation.Continuation {
	return continuation.Continuation{Timestamp: i.UpdatedAt, ID: i.ID}
}

func ownershipKey(o schema.Ownership) continuation.Continuation {
	return continuation.Continuation{Timestamp: o.AcquiredAt, ID: o.ID}
}

func orderKey(o schema.Order) continuation.Continuation {
	return continuation.Continuation{Timestamp: o.LastUpdatedAt, ID: o.ID}
}

func lotKey(l schema.AuctionLot) continuation.Continuation {
	return continuation.Continuation{Timestamp: l.LastUpdatedAt, ID: l.ID}
}

func activityKey(h schema.ItemHistory) continuation.Continuation {
	return continuation.Continuation{Timestamp: h.Timestamp, ID: h.LogID}
}
