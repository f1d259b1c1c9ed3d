// internal/infrastructure/client/inventory_client.go
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
	"github.com/your-org/warehouse-backend/internal/domain/purchase"
)

const (
	// HeaderIdempotencyKey carries the per-calculation purchase key
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderRequestID correlates client and server logs
	HeaderRequestID = "X-Request-ID"

	snapshotPageSize = 100
)

// Error codes returned by the inventory service
const (
	CodeValidation        = "validation_failed"
	CodeInsufficientStock = "insufficient_stock"
	CodeNotFound          = "not_found"
	CodeDuplicatePurchase = "duplicate_purchase"
	CodeInternal          = "internal"
)

// APIError is an error response of the inventory service. It unwraps to the
// inventory sentinel matching its code, so callers classify it with
// errors.Is like a local error.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inventory service: %s (%d %s)", e.Message, e.StatusCode, e.Code)
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case CodeValidation:
		return inventory.ErrValidation
	case CodeInsufficientStock:
		return inventory.ErrInsufficientStock
	case CodeNotFound:
		return inventory.ErrNotFound
	case CodeDuplicatePurchase:
		return inventory.ErrDuplicatePurchase
	}
	return nil
}

// InventoryClient talks to the inventory service over HTTP. It implements
// purchase.Backend and purchase.LineBackend.
//
// Reads and calculations go through a client that retries transport errors
// and 5xx responses. Mutations go through one that retries only when the
// connection could not be established, so a request that may have reached
// the service is never sent twice.
type InventoryClient struct {
	reads  *resty.Client
	writes *resty.Client
	logger *logrus.Entry
}

// NewInventoryClient creates a client for the configured base URL
func NewInventoryClient(cfg *config.Config, logger *logrus.Logger) *InventoryClient {
	c := &InventoryClient{logger: logger.WithField("component", "inventory_client")}

	c.reads = c.newResty(cfg).AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
	})
	c.writes = c.newResty(cfg).AddRetryCondition(func(_ *resty.Response, err error) bool {
		return isDialError(err)
	})

	return c
}

func (c *InventoryClient) newResty(cfg *config.Config) *resty.Client {
	return resty.New().
		SetBaseURL(cfg.Client.BaseURL).
		SetTimeout(cfg.Client.Timeout).
		SetRetryCount(cfg.Client.RetryCount).
		SetRetryWaitTime(cfg.Client.RetryWaitTime).
		SetRetryMaxWaitTime(cfg.Client.RetryMaxWaitTime).
		SetHeader("Accept", "application/json").
		SetError(&APIError{}).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			if r.Header.Get(HeaderRequestID) == "" {
				r.SetHeader(HeaderRequestID, uuid.NewString())
			}
			return nil
		}).
		OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
			c.logger.WithFields(logrus.Fields{
				"method":     r.Request.Method,
				"url":        r.Request.URL,
				"status":     r.StatusCode(),
				"latency":    r.Time(),
				"request_id": r.Request.Header.Get(HeaderRequestID),
			}).Debug("Inventory service call")
			return nil
		})
}

// ListInventory fetches every line of a warehouse, page by page until the
// service returns an empty page
func (c *InventoryClient) ListInventory(ctx context.Context, warehouseID uuid.UUID) ([]inventory.InventoryLine, error) {
	var all []inventory.InventoryLine

	for page := 1; ; page++ {
		var lines []inventory.InventoryLine
		req := c.reads.R().
			SetContext(ctx).
			SetPathParam("id", warehouseID.String()).
			SetQueryParams(map[string]string{
				"page":  strconv.Itoa(page),
				"limit": strconv.Itoa(snapshotPageSize),
			}).
			SetResult(&lines)

		if err := c.execute(req, resty.MethodGet, "/warehouses/{id}/products"); err != nil {
			return nil, err
		}

		// The service may clamp limit below snapshotPageSize, so only an
		// empty page ends the listing
		if len(lines) == 0 {
			return all, nil
		}
		all = append(all, lines...)
	}
}

// GetLine fetches one inventory line
func (c *InventoryClient) GetLine(ctx context.Context, warehouseID, productID uuid.UUID) (*inventory.InventoryLine, error) {
	var line inventory.InventoryLine
	req := c.reads.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"id":         warehouseID.String(),
			"product_id": productID.String(),
		}).
		SetResult(&line)

	if err := c.execute(req, resty.MethodGet, "/warehouses/{id}/products/{product_id}"); err != nil {
		return nil, err
	}
	return &line, nil
}

// Calculate prices a purchase request
func (c *InventoryClient) Calculate(ctx context.Context, request inventory.PurchaseRequest) (*inventory.Calculation, error) {
	var calc inventory.Calculation
	req := c.reads.R().SetContext(ctx).SetBody(request).SetResult(&calc)

	if err := c.execute(req, resty.MethodPost, "/warehouses/calculate"); err != nil {
		return nil, err
	}
	return &calc, nil
}

// Purchase commits a purchase request
func (c *InventoryClient) Purchase(ctx context.Context, request inventory.PurchaseRequest, idempotencyKey string) (*inventory.Receipt, error) {
	var receipt inventory.Receipt
	req := c.writes.R().SetContext(ctx).SetBody(request).SetResult(&receipt)
	if idempotencyKey != "" {
		req.SetHeader(HeaderIdempotencyKey, idempotencyKey)
	}

	if err := c.execute(req, resty.MethodPost, "/warehouses/purchase"); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// UpdateQuantity sets the on-hand quantity of a line
func (c *InventoryClient) UpdateQuantity(ctx context.Context, warehouseID, productID uuid.UUID, quantity int) (*inventory.InventoryLine, error) {
	return c.updateLine(ctx, resty.MethodPut, "/inventory/quantity", map[string]interface{}{
		"warehouse_id": warehouseID,
		"product_id":   productID,
		"quantity":     quantity,
	})
}

// UpdateDiscount sets the discount percent of a line
func (c *InventoryClient) UpdateDiscount(ctx context.Context, warehouseID, productID uuid.UUID, discount decimal.Decimal) (*inventory.InventoryLine, error) {
	return c.updateLine(ctx, resty.MethodPut, "/inventory/discount", map[string]interface{}{
		"warehouse_id": warehouseID,
		"product_id":   productID,
		"discount":     discount,
	})
}

// UpdateLine applies a combined edit in one request
func (c *InventoryClient) UpdateLine(ctx context.Context, request inventory.LineUpdateRequest) (*inventory.InventoryLine, error) {
	return c.updateLine(ctx, resty.MethodPatch, "/inventory", request)
}

func (c *InventoryClient) updateLine(ctx context.Context, method, path string, body interface{}) (*inventory.InventoryLine, error) {
	var line inventory.InventoryLine
	req := c.writes.R().SetContext(ctx).SetBody(body).SetResult(&line)

	if err := c.execute(req, method, path); err != nil {
		return nil, err
	}
	return &line, nil
}

// execute sends a request and turns failures into ErrTransport or *APIError
func (c *InventoryClient) execute(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", purchase.ErrTransport, method, path, err)
	}

	if resp.IsError() {
		apiErr, ok := resp.Error().(*APIError)
		if !ok || apiErr.Message == "" {
			apiErr = &APIError{Message: resp.Status(), Code: CodeInternal}
		}
		apiErr.StatusCode = resp.StatusCode()
		return apiErr
	}
	return nil
}

// isDialError reports whether err happened before a connection existed, in
// which case nothing was sent.
func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
