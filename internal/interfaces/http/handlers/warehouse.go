// internal/interfaces/http/handlers/warehouse.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

// WarehouseHandler handles warehouse and product catalog endpoints
type WarehouseHandler struct {
	service *inventory.Service
}

// NewWarehouseHandler creates a new warehouse handler
func NewWarehouseHandler(service *inventory.Service) *WarehouseHandler {
	return &WarehouseHandler{service: service}
}

// CreateWarehouse handles POST /warehouses
func (h *WarehouseHandler) CreateWarehouse(c *gin.Context) {
	var req inventory.WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	warehouse, err := h.service.CreateWarehouse(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, warehouse)
}

// ListWarehouses handles GET /warehouses
func (h *WarehouseHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.service.ListWarehouses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, warehouses)
}

// CreateProduct handles POST /products
func (h *WarehouseHandler) CreateProduct(c *gin.Context) {
	var req inventory.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /products/:id
func (h *WarehouseHandler) UpdateProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req inventory.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProducts handles GET /products
func (h *WarehouseHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}
