package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes. Every route is a public read.
func SetupRoutes(router *gin.Engine, handler Handler) {
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/items", handler.ListItems)
		v1.GET("/items/:id", handler.GetItem)
		v1.GET("/items/:id/meta", handler.GetItemMetadata)
		v1.GET("/items/:id/ownerships", handler.ListItemOwnerships)
		v1.GET("/items/:id/orders", handler.ListItemOrders)

		v1.GET("/owners/:address/ownerships", handler.ListOwnerOwnerships)

		v1.GET("/orders/:id", handler.GetOrder)

		v1.GET("/lots", handler.ListLots)
		v1.GET("/lots/:id", handler.GetLot)

		v1.GET("/activities", handler.ListActivities)
	}
}
