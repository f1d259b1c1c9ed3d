package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
	"github.com/your-org/warehouse-backend/internal/domain/purchase"
	"github.com/your-org/warehouse-backend/internal/pkg/logger"
)

var (
	_ purchase.Backend     = (*InventoryClient)(nil)
	_ purchase.LineBackend = (*InventoryClient)(nil)
)

func newTestClient(baseURL string) *InventoryClient {
	cfg := &config.Config{Client: config.ClientConfig{
		BaseURL:          baseURL,
		Timeout:          2 * time.Second,
		RetryCount:       2,
		RetryWaitTime:    time.Millisecond,
		RetryMaxWaitTime: 5 * time.Millisecond,
	}}
	return NewInventoryClient(cfg, logger.Discard())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestCalculate_DecodesNumbers(t *testing.T) {
	productID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/warehouses/calculate", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(HeaderRequestID))

		var req inventory.PurchaseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, productID, req.Products[0].ProductID)

		writeJSON(w, http.StatusOK, `{"total_sum":270,"items":[{"product_id":"`+productID.String()+
			`","name":"Widget","quantity":3,"price":100,"price_with_discount":90,"total_price":270}]}`)
	}))
	defer server.Close()

	calc, err := newTestClient(server.URL+"/api").Calculate(context.Background(), inventory.PurchaseRequest{
		WarehouseID: uuid.New(),
		Products:    []inventory.PurchaseLine{{ProductID: productID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(270).Equal(calc.TotalSum))
	require.Len(t, calc.Items, 1)
	assert.True(t, decimal.NewFromInt(90).Equal(calc.Items[0].PriceWithDiscount))
}

func TestErrorResponsesMapToSentinels(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   error
	}{
		{http.StatusConflict, CodeInsufficientStock, inventory.ErrInsufficientStock},
		{http.StatusBadRequest, CodeValidation, inventory.ErrValidation},
		{http.StatusNotFound, CodeNotFound, inventory.ErrNotFound},
		{http.StatusConflict, CodeDuplicatePurchase, inventory.ErrDuplicatePurchase},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, `{"error":"nope","code":"`+tt.code+`"}`)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Purchase(context.Background(), inventory.PurchaseRequest{}, "")
			assert.ErrorIs(t, err, tt.want)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestPurchase_SendsKeyAndIsNotRetriedAfterSend(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "key-123", r.Header.Get(HeaderIdempotencyKey))
		writeJSON(w, http.StatusInternalServerError, `{"error":"boom","code":"internal"}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Purchase(context.Background(), inventory.PurchaseRequest{}, "key-123")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCalculate_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, `{"error":"busy","code":"internal"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"total_sum":0,"items":[]}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Calculate(context.Background(), inventory.PurchaseRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestUnreachableServiceIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := newTestClient(url)

	_, err := c.Calculate(context.Background(), inventory.PurchaseRequest{})
	assert.ErrorIs(t, err, purchase.ErrTransport)

	_, err = c.Purchase(context.Background(), inventory.PurchaseRequest{}, "k")
	assert.ErrorIs(t, err, purchase.ErrTransport)
	assert.True(t, isDialError(err))
}

func pagedServer(t *testing.T, warehouseID uuid.UUID, pageSize, total int, pages *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/warehouses/"+warehouseID.String()+"/products", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		require.NoError(t, err)
		*pages = append(*pages, r.URL.Query().Get("page"))

		n := total - (page-1)*pageSize
		if n > pageSize {
			n = pageSize
		}
		if n < 0 {
			n = 0
		}
		lines := make([]inventory.InventoryLine, n)
		for i := range lines {
			lines[i] = inventory.InventoryLine{ProductID: uuid.New(), Price: decimal.Zero, Discount: decimal.Zero}
		}
		body, _ := json.Marshal(lines)
		writeJSON(w, http.StatusOK, string(body))
	}))
}

func TestListInventory_FollowsPages(t *testing.T) {
	warehouseID := uuid.New()
	var pages []string
	server := pagedServer(t, warehouseID, snapshotPageSize, snapshotPageSize+3, &pages)
	defer server.Close()

	lines, err := newTestClient(server.URL).ListInventory(context.Background(), warehouseID)
	require.NoError(t, err)
	assert.Len(t, lines, snapshotPageSize+3)
	assert.Equal(t, []string{"1", "2", "3"}, pages)
}

func TestListInventory_ServerClampsPageSize(t *testing.T) {
	warehouseID := uuid.New()
	var pages []string
	server := pagedServer(t, warehouseID, 50, 120, &pages)
	defer server.Close()

	lines, err := newTestClient(server.URL).ListInventory(context.Background(), warehouseID)
	require.NoError(t, err)
	assert.Len(t, lines, 120)
	assert.Equal(t, []string{"1", "2", "3", "4"}, pages)
}

func TestUpdateLine_OmitsAbsentFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/inventory", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "quantity")
		assert.NotContains(t, body, "discount")

		writeJSON(w, http.StatusOK, `{"quantity":4,"price":1,"discount":0}`)
	}))
	defer server.Close()

	quantity := 4
	line, err := newTestClient(server.URL).UpdateLine(context.Background(), inventory.LineUpdateRequest{
		WarehouseID: uuid.New(),
		ProductID:   uuid.New(),
		Quantity:    &quantity,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, line.Quantity)
}
