package rest

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-market-indexer/internal/continuation"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/store"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// PageQueryParams holds the pagination parameters shared by every list endpoint
type PageQueryParams struct {
	Continuation string `form:"continuation"`
	Size         int    `form:"size,default=50"`
	Sort         string `form:"sort,default=desc"`
}

// ListItemsQueryParams holds query parameters for GET /items
type ListItemsQueryParams struct {
	PageQueryParams
	Owner      string `form:"owner"`
	Collection string `form:"collection"`
	Creator    string `form:"creator"`
}

// ListOrdersQueryParams holds query parameters for GET /items/:id/orders
type ListOrdersQueryParams struct {
	PageQueryParams
	Type string `form:"type"`
}

// ListLotsQueryParams holds query parameters for GET /lots
type ListLotsQueryParams struct {
	PageQueryParams
	Status string `form:"status"`
}

// ListActivitiesQueryParams holds query parameters for GET /activities
type ListActivitiesQueryParams struct {
	PageQueryParams
	ItemID string   `form:"item_id"`
	User   string   `form:"user"`
	Types  []string `form:"type"`
}

// PageQuery validates the parameters and decodes the continuation.
// A malformed continuation yields domain.ErrBadCursor.
func (p PageQueryParams) PageQuery() (continuation.PageQuery, error) {
	var direction continuation.Direction
	switch strings.ToLower(p.Sort) {
	case "", "desc":
		direction = continuation.Desc
	case "asc":
		direction = continuation.Asc
	default:
		return continuation.PageQuery{}, fmt.Errorf("invalid sort %q, expected asc or desc", p.Sort)
	}
	if p.Size < 0 {
		return continuation.PageQuery{}, fmt.Errorf("size must not be negative")
	}

	return continuation.NewPageQuery(direction, p.Continuation, p.Size)
}

// Filter normalizes the owner, collection and creator filters
func (p ListItemsQueryParams) Filter() (store.ItemFilter, error) {
	var filter store.ItemFilter

	if p.Owner != "" {
		owner, err := domain.NormalizeAddress(p.Owner)
		if err != nil {
			return filter, fmt.Errorf("invalid owner: %w", err)
		}
		filter.Owner = owner
	}

	if p.Collection != "" {
		collection, err := domain.NormalizeContractID(p.Collection)
		if err != nil {
			return filter, fmt.Errorf("invalid collection: %w", err)
		}
		filter.Collection = collection
	}

	if p.Creator != "" {
		creator, err := domain.NormalizeAddress(p.Creator)
		if err != nil {
			return filter, fmt.Errorf("invalid creator: %w", err)
		}
		filter.Creator = creator
	}

	return filter, nil
}

// OrderType parses the type filter, nil when absent
func (p ListOrdersQueryParams) OrderType() (*schema.OrderType, error) {
	if p.Type == "" {
		return nil, nil
	}
	t := schema.OrderType(strings.ToUpper(p.Type))
	switch t {
	case schema.OrderTypeList, schema.OrderTypeBid:
		return &t, nil
	default:
		return nil, fmt.Errorf("invalid order type %q", p.Type)
	}
}

// LotStatus parses the status filter, nil when absent
func (p ListLotsQueryParams) LotStatus() (*schema.LotStatus, error) {
	if p.Status == "" {
		return nil, nil
	}
	s := schema.LotStatus(strings.ToUpper(p.Status))
	switch s {
	case schema.LotStatusActive, schema.LotStatusFinished, schema.LotStatusCanceled, schema.LotStatusInactive:
		return &s, nil
	default:
		return nil, fmt.Errorf("invalid lot status %q", p.Status)
	}
}

// Filter builds the store filter from the parameters
func (p ListActivitiesQueryParams) Filter() (store.ActivityFilter, error) {
	var filter store.ActivityFilter

	if p.ItemID != "" {
		id, err := domain.ParseItemID(p.ItemID)
		if err != nil {
			return filter, err
		}
		filter.ItemID = id.String()
	}

	if p.User != "" {
		user, err := domain.NormalizeAddress(p.User)
		if err != nil {
			return filter, err
		}
		filter.User = user
	}

	for _, raw := range p.Types {
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			filter.Types = append(filter.Types, domain.ActivityType(strings.ToUpper(t)))
		}
	}

	return filter, nil
}

type pageQuerier interface {
	PageQuery() (continuation.PageQuery, error)
}

// bindPageQuery binds params from the query string and validates its pagination part
func bindPageQuery(c *gin.Context, params pageQuerier) (continuation.PageQuery, error) {
	if err := c.ShouldBindQuery(params); err != nil {
		return continuation.PageQuery{}, err
	}
	return params.PageQuery()
}
