package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-market-indexer/internal/api/shared/executor"
	"github.com/feral-file/ff-market-indexer/internal/domain"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// ListItems retrieves items, most recently updated first
	// GET /api/v1/items?owner=<address>&collection=<contract>&creator=<address>&continuation=<cursor>&size=<size>&sort=<asc|desc>
	ListItems(c *gin.Context)

	// GetItem retrieves a single item
	// GET /api/v1/items/:id
	GetItem(c *gin.Context)

	// GetItemMetadata retrieves the resolved metadata of an item, with an ETag
	// GET /api/v1/items/:id/meta
	GetItemMetadata(c *gin.Context)

	// ListItemOwnerships retrieves the holders of an item
	// GET /api/v1/items/:id/ownerships?continuation=<cursor>&size=<size>
	ListItemOwnerships(c *gin.Context)

	// ListItemOrders retrieves the orders of an item
	// GET /api/v1/items/:id/orders?type=<LIST|BID>&continuation=<cursor>&size=<size>
	ListItemOrders(c *gin.Context)

	// ListOwnerOwnerships retrieves the holdings of an address
	// GET /api/v1/owners/:address/ownerships?continuation=<cursor>&size=<size>
	ListOwnerOwnerships(c *gin.Context)

	// GetOrder retrieves a single order
	// GET /api/v1/orders/:id
	GetOrder(c *gin.Context)

	// ListLots retrieves auction lots
	// GET /api/v1/lots?status=<status>&continuation=<cursor>&size=<size>
	ListLots(c *gin.Context)

	// GetLot retrieves a single auction lot
	// GET /api/v1/lots/:id
	GetLot(c *gin.Context)

	// ListActivities retrieves the activity log
	// GET /api/v1/activities?item_id=<id>&user=<address>&type=<type1>,<type2>&continuation=<cursor>&size=<size>
	ListActivities(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	executor executor.Executor
}

// NewHandler creates a new REST API handler using the shared executor
func NewHandler(exec executor.Executor) Handler {
	return &handler{executor: exec}
}

// respondPageQueryError maps a pagination parsing failure to a 400
func respondPageQueryError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrBadCursor) {
		respondBadRequest(c, "Invalid continuation", err.Error())
		return
	}
	respondValidationError(c, err.Error())
}

// itemParam parses the :id path parameter
func itemParam(c *gin.Context) (domain.ItemID, bool) {
	id, err := domain.ParseItemID(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid item id", err.Error())
		return domain.ItemID{}, false
	}
	return id, true
}

func (h *handler) ListItems(c *gin.Context) {
	var params ListItemsQueryParams
	q, err := bindPageQuery(c, &params)
	if err != nil {
		respondPageQueryError(c, err)
		return
	}

	filter, err := params.Filter()
	if err != nil {
		respondBadRequest(c, "Invalid item filter", err.Error())
		return
	}

	page, err := h.executor.ListItems(c.Request.Context(), filter, q)
	if err != nil {
		respondExecutorError(c, err, "Failed to list items")
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *handler) GetItem(c *gin.Context) {
	id, ok := itemParam(c)
	if !ok {
		return
	}

	item, err := h.executor.GetItem(c.Request.Context(), id)
	if err != nil {
		respondExecutorError(c, err, "Failed to get item", zap.String("item_id", id.String()))
		return
	}
	if item == nil {
		respondNotFound(c, "Item not found")
		return
	}

	c.JSON(http.StatusOK, item)
}

// GetItemMetadata answers 304 when the client already holds the current metadata
func (h *handler) GetItemMetadata(c *gin.Context) {
	id, ok := itemParam(c)
	if !ok {
		return
	}

	meta, hash, err := h.executor.GetItemMetadata(c.Request.Context(), id)
	if err != nil {
		respondExecutorError(c, err, "Failed to get item metadata", zap.String("item_id", id.String()))
		return
	}
	if meta == nil {
		respondNotFound(c, "Item not found")
		return
	}

	etag := `"` + hash + `"`
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.JSON(http.StatusOK, meta)
}

func (h *handler) ListItemOwnerships(c *gin.Context) {
	id, ok := itemParam(c)
	if !ok {
		return
	}

	var params PageQueryParams
	q, err := bindPageQuery(c, &params)
	if err != nil {
		respondPageQueryError(c, err)
		return
	}

	page, err := h.executor.ListOwnershipsByItem(c.Request.Context(), id, q)
	if err != nil {
		respondExecutorError(c, err, "Failed to list ownerships", zap.String("item_id", id.String()))
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *handler) ListItemOrders(c *gin.Context) {
	id, ok := itemParam(c)
	if !ok {
		return
	}

	var params ListOrdersQueryParams
	q, err := bindPageQuery(c, &params)
	if err != nil {
		respondPageQueryError(c, err)
		return
	}

	orderType, err := params.OrderType()
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	page, err := h.executor.ListOrdersByItem(c.Request.Context(), id, orderType, q)
	if err != nil {
		respondExecutorError(c, err, "Failed to list orders", zap.String("item_id", id.String()))
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *handler) ListOwnerOwnerships(c *gin.Context) {
	owner, err := domain.NormalizeAddress(c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid owner address", err.Error())
		return
	}

	var params PageQueryParams
	q, err := bindPageQuery(c, &params)
	if err != nil {
		respondPageQueryError(c, err)
		return
	}

	page, err := h.executor.ListOwnershipsByOwner(c.Request.Context(), owner, q)
	if err != nil {
		respondExecutorError(c, err, "Failed to list ownerships", zap.String("owner", owner))
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *handler) GetOrder(c *gin.Context) {
	id := c.Param("id")

	o, err := h.executor.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondExecutorError(c, err, "Failed to get order", zap.String("order_id", id))
		return
	}
	if o == nil {
		respondNotFound(c, "Order not found")
		return
	}

	c.JSON(http.StatusOK, o)
}

func (h *handler) ListLots(c *gin.Context) {
	var params ListLotsQueryParams
	q, err := bindPageQuery(c, &params)
	if err != nil {
		respondPageQueryError(c, err)
		return
	}

	status, err := params.LotStatus()
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	page, err := h.executor.ListLots(c.Request.Context(), status, q)
	if err != nil {
		respondExecutorError(c, err, "Failed to list lots")
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *handler) GetLot(c *gin.Context) {
	id := c.Param("id")

	lot, err := h.executor.GetLot(c.Request.Context(), id)
	if err != nil {
		respondExecutorError(c, err, "Failed to get lot", zap.String("lot_id", id))
		return
	}
	if lot == nil {
		respondNotFound(c, "Lot not found")
		return
	}

	c.JSON(http.StatusOK, lot)
}

func (h *handler) ListActivities(c *gin.Context) {
	var params ListActivitiesQueryParams
	q, err := bindPageQuery(c, &params)
	if err != nil {
		respondPageQueryError(c, err)
		return
	}

	filter, err := params.Filter()
	if err != nil {
		respondBadRequest(c, "Invalid activity filter", err.Error())
		return
	}

	page, err := h.executor.ListActivities(c.Request.Context(), filter, q)
	if err != nil {
		respondExecutorError(c, err, "Failed to list activities")
		return
	}

	c.JSON(http.StatusOK, page)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ff-market-indexer-api",
	})
}
