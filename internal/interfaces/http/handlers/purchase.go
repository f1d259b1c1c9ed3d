// internal/interfaces/http/handlers/purchase.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

// HeaderIdempotencyKey deduplicates purchase retries
const HeaderIdempotencyKey = "Idempotency-Key"

// PurchaseHandler handles purchase calculation and commit endpoints
type PurchaseHandler struct {
	service *inventory.Service
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(service *inventory.Service) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

// Calculate handles POST /warehouses/calculate
func (h *PurchaseHandler) Calculate(c *gin.Context) {
	var req inventory.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	calc, err := h.service.Calculate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, calc)
}

// Purchase handles POST /warehouses/purchase
func (h *PurchaseHandler) Purchase(c *gin.Context) {
	var req inventory.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	receipt, err := h.service.Purchase(c.Request.Context(), &req, c.GetHeader(HeaderIdempotencyKey))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}
