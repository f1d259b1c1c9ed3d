// internal/interfaces/http/handlers/analytics.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

// AnalyticsHandler handles sales analytics endpoints
type AnalyticsHandler struct {
	service *inventory.Service
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service *inventory.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetWarehouse handles GET /analytics/warehouses/:id
func (h *AnalyticsHandler) GetWarehouse(c *gin.Context) {
	warehouseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	analytics, err := h.service.WarehouseAnalytics(c.Request.Context(), warehouseID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// GetTopWarehouses handles GET /analytics/warehouses/top
func (h *AnalyticsHandler) GetTopWarehouses(c *gin.Context) {
	warehouses, err := h.service.TopWarehouses(c.Request.Context(), intQuery(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, warehouses)
}
