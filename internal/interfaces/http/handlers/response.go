// internal/interfaces/http/handlers/response.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

// Error codes carried in the "code" field of error bodies
const (
	CodeValidation        = "validation_failed"
	CodeInsufficientStock = "insufficient_stock"
	CodeNotFound          = "not_found"
	CodeDuplicatePurchase = "duplicate_purchase"
	CodeLineExists        = "line_exists"
	CodeTimeout           = "timeout"
	CodeInternal          = "internal"
)

// respondError writes the error body matching err's kind
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"code":  code,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, inventory.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, inventory.ErrInsufficientStock):
		return http.StatusConflict, CodeInsufficientStock
	case errors.Is(err, inventory.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, inventory.ErrDuplicatePurchase):
		return http.StatusConflict, CodeDuplicatePurchase
	case errors.Is(err, inventory.ErrLineExists):
		return http.StatusConflict, CodeLineExists
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// respondBadRequest reports a body or parameter that could not be parsed
func respondBadRequest(c *gin.Context, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": message,
		"code":  CodeValidation,
	})
}

// uuidParam parses a path parameter, writing a 400 when it is malformed
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondBadRequest(c, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// intQuery reads an optional integer query parameter. Malformed values read
// as 0, which the service replaces with its default.
func intQuery(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}
