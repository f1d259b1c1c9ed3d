// internal/domain/inventory/repository.go
package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage contract of the inventory service.
//
// Lookups of a missing row return an error wrapping ErrNotFound. Lines
// returned by the line queries carry their Product.
type Repository interface {
	CreateWarehouse(ctx context.Context, warehouse *Warehouse) error
	ListWarehouses(ctx context.Context) ([]Warehouse, error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (*Warehouse, error)

	CreateProduct(ctx context.Context, product *Product) error
	UpdateProduct(ctx context.Context, product *Product) error
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)

	// CreateLine stocks a product in a warehouse; ErrLineExists when the
	// pair is already stocked.
	CreateLine(ctx context.Context, line *InventoryLine) error
	ListLines(ctx context.Context, warehouseID uuid.UUID, page Page) ([]InventoryLine, error)
	FindLines(ctx context.Context, warehouseID uuid.UUID, productIDs []uuid.UUID) ([]InventoryLine, error)
	GetLine(ctx context.Context, warehouseID, productID uuid.UUID) (*InventoryLine, error)

	// UpdateLine applies every field of the patch in one step and records an
	// adjustment movement when the quantity changes.
	UpdateLine(ctx context.Context, warehouseID, productID uuid.UUID, patch LinePatch) (*InventoryLine, error)

	// ApplyPurchase locks the requested lines, prices them with Quote against
	// their current stock and, only when every line can be fulfilled,
	// decrements stock, records sale movements and accumulates sales. Nothing
	// changes when it returns an error.
	ApplyPurchase(ctx context.Context, purchaseID uuid.UUID, request PurchaseRequest) (*Calculation, error)

	WarehouseSales(ctx context.Context, warehouseID uuid.UUID) ([]SalesRecord, error)
	TopWarehouses(ctx context.Context, limit int) ([]WarehouseRevenue, error)
}

// ReceiptStore remembers purchase receipts by idempotency key.
type ReceiptStore interface {
	// Claim reserves key for a new purchase. It returns the stored receipt
	// when key already completed, ErrDuplicatePurchase when another purchase
	// holds it, and (nil, nil) when the caller now owns it.
	Claim(ctx context.Context, key string) (*Receipt, error)
	// Complete stores the receipt of an owned key.
	Complete(ctx context.Context, key string, receipt *Receipt) error
	// Release frees an owned key after a failed purchase.
	Release(ctx context.Context, key string) error
}
