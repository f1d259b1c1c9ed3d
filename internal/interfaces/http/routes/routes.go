// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
	"github.com/your-org/warehouse-backend/internal/interfaces/http/handlers"
)

// SetupRoutes registers every inventory service route on the API group
func SetupRoutes(api *gin.RouterGroup, service *inventory.Service) {
	SetupWarehouseRoutes(api, service)
	SetupInventoryRoutes(api, service)
	SetupAnalyticsRoutes(api, service)
}

// SetupWarehouseRoutes sets up warehouse, product and purchase routes
func SetupWarehouseRoutes(rg *gin.RouterGroup, service *inventory.Service) {
	warehouseHandler := handlers.NewWarehouseHandler(service)
	inventoryHandler := handlers.NewInventoryHandler(service)
	purchaseHandler := handlers.NewPurchaseHandler(service)

	warehouses := rg.Group("/warehouses")
	{
		warehouses.GET("", warehouseHandler.ListWarehouses)
		warehouses.POST("", warehouseHandler.CreateWarehouse)
		warehouses.GET("/:id/products", inventoryHandler.ListLines)
		warehouses.GET("/:id/products/:product_id", inventoryHandler.GetLine)

		warehouses.POST("/calculate", purchaseHandler.Calculate)
		warehouses.POST("/purchase", purchaseHandler.Purchase)
	}

	products := rg.Group("/products")
	{
		products.GET("", warehouseHandler.ListProducts)
		products.POST("", warehouseHandler.CreateProduct)
		products.PUT("/:id", warehouseHandler.UpdateProduct)
	}
}

// SetupInventoryRoutes sets up inventory line routes
func SetupInventoryRoutes(rg *gin.RouterGroup, service *inventory.Service) {
	inventoryHandler := handlers.NewInventoryHandler(service)

	lines := rg.Group("/inventory")
	{
		lines.POST("", inventoryHandler.StockProduct)
		lines.PATCH("", inventoryHandler.UpdateLine)
		lines.PUT("/quantity", inventoryHandler.UpdateQuantity)
		lines.PUT("/discount", inventoryHandler.UpdateDiscount)
	}
}

// SetupAnalyticsRoutes sets up sales analytics routes
func SetupAnalyticsRoutes(rg *gin.RouterGroup, service *inventory.Service) {
	analyticsHandler := handlers.NewAnalyticsHandler(service)

	analytics := rg.Group("/analytics/warehouses")
	{
		analytics.GET("/top", analyticsHandler.GetTopWarehouses)
		analytics.GET("/:id", analyticsHandler.GetWarehouse)
	}
}
