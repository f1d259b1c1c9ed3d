// internal/interfaces/http/handlers/inventory.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

// InventoryHandler handles inventory line endpoints
type InventoryHandler struct {
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// StockProduct handles POST /inventory
func (h *InventoryHandler) StockProduct(c *gin.Context) {
	var req inventory.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	line, err := h.service.StockProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, line)
}

// ListLines handles GET /warehouses/:id/products
func (h *InventoryHandler) ListLines(c *gin.Context) {
	warehouseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	lines, err := h.service.ListInventory(c.Request.Context(), warehouseID, intQuery(c, "page"), intQuery(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lines)
}

// GetLine handles GET /warehouses/:id/products/:product_id
func (h *InventoryHandler) GetLine(c *gin.Context) {
	warehouseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}

	line, err := h.service.GetLine(c.Request.Context(), warehouseID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, line)
}

// UpdateQuantity handles PUT /inventory/quantity
func (h *InventoryHandler) UpdateQuantity(c *gin.Context) {
	var req inventory.LineUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}
	if req.Quantity == nil {
		respondBadRequest(c, "quantity is required", nil)
		return
	}

	line, err := h.service.UpdateQuantity(c.Request.Context(), req.WarehouseID, req.ProductID, *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, line)
}

// UpdateDiscount handles PUT /inventory/discount
func (h *InventoryHandler) UpdateDiscount(c *gin.Context) {
	var req inventory.LineUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}
	if req.Discount == nil {
		respondBadRequest(c, "discount is required", nil)
		return
	}

	line, err := h.service.UpdateDiscount(c.Request.Context(), req.WarehouseID, req.ProductID, *req.Discount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, line)
}

// UpdateLine handles PATCH /inventory
func (h *InventoryHandler) UpdateLine(c *gin.Context) {
	var req inventory.LineUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	line, err := h.service.UpdateLine(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, line)
}
