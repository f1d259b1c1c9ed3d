// internal/domain/inventory/service.go
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/warehouse-backend/internal/config"
)

// PurchaseStatusSuccess is the status of a committed purchase
const PurchaseStatusSuccess = "success"

// receiptWriteTimeout bounds the receipt store calls made after a purchase
// attempt; they run even when the caller has gone away.
const receiptWriteTimeout = 5 * time.Second

// Service handles inventory, pricing and purchase business logic
type Service struct {
	repo     Repository
	receipts ReceiptStore
	config   *config.Config
	logger   *logrus.Entry
}

// NewService creates a new inventory service. receipts may be nil, in which
// case idempotency keys are ignored.
func NewService(repo Repository, receipts ReceiptStore, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		repo:     repo,
		receipts: receipts,
		config:   cfg,
		logger:   logger.WithField("component", "inventory"),
	}
}

// WarehouseRequest represents warehouse creation data
type WarehouseRequest struct {
	Address string `json:"address" binding:"required"`
}

// ProductRequest represents product creation and update data
type ProductRequest struct {
	Name            string          `json:"name" binding:"required"`
	Description     string          `json:"description"`
	Characteristics json.RawMessage `json:"characteristics"`
	Weight          float64         `json:"weight"`
	Barcode         string          `json:"barcode"`
}

// StockRequest represents the stocking of a product in a warehouse
type StockRequest struct {
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
}

// LineUpdateRequest edits one inventory line. Absent fields are left as is.
type LineUpdateRequest struct {
	WarehouseID uuid.UUID        `json:"warehouse_id"`
	ProductID   uuid.UUID        `json:"product_id"`
	Quantity    *int             `json:"quantity,omitempty"`
	Discount    *decimal.Decimal `json:"discount,omitempty"`
}

// Patch returns the fields of the request as a LinePatch
func (r *LineUpdateRequest) Patch() LinePatch {
	return LinePatch{Quantity: r.Quantity, Discount: r.Discount}
}

// WAREHOUSES AND PRODUCTS

// CreateWarehouse creates a new warehouse
func (s *Service) CreateWarehouse(ctx context.Context, req *WarehouseRequest) (*Warehouse, error) {
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, ErrMissingAddress
	}

	warehouse := &Warehouse{Address: address}
	if err := s.repo.CreateWarehouse(ctx, warehouse); err != nil {
		return nil, fmt.Errorf("failed to create warehouse: %w", err)
	}

	s.logger.WithField("warehouse_id", warehouse.ID).Info("Warehouse created")
	return warehouse, nil
}

// ListWarehouses retrieves all warehouses
func (s *Service) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	warehouses, err := s.repo.ListWarehouses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve warehouses: %w", err)
	}
	return warehouses, nil
}

// GetWarehouse retrieves one warehouse
func (s *Service) GetWarehouse(ctx context.Context, id uuid.UUID) (*Warehouse, error) {
	return s.repo.GetWarehouse(ctx, id)
}

// CreateProduct adds a product to the catalog
func (s *Service) CreateProduct(ctx context.Context, req *ProductRequest) (*Product, error) {
	product := &Product{}
	if err := applyProductRequest(product, req); err != nil {
		return nil, err
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.WithField("product_id", product.ID).Info("Product created")
	return product, nil
}

// UpdateProduct replaces the descriptive fields of a product
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest) (*Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyProductRequest(product, req); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// ListProducts retrieves the catalog
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	return products, nil
}

// GetProduct retrieves one product
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func applyProductRequest(product *Product, req *ProductRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return ErrMissingName
	}
	if req.Weight < 0 {
		return fmt.Errorf("%w: weight must be non-negative", ErrValidation)
	}
	if len(req.Characteristics) > 0 && !json.Valid(req.Characteristics) {
		return fmt.Errorf("%w: characteristics must be valid JSON", ErrValidation)
	}

	product.Name = name
	product.Description = req.Description
	product.Characteristics = req.Characteristics
	product.Weight = req.Weight
	product.Barcode = req.Barcode
	return nil
}

// INVENTORY

// StockProduct creates the inventory line of a product in a warehouse
func (s *Service) StockProduct(ctx context.Context, req *StockRequest) (*InventoryLine, error) {
	if err := requireIDs(req.WarehouseID, req.ProductID); err != nil {
		return nil, err
	}
	if err := ValidateQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if err := ValidatePrice(req.Price); err != nil {
		return nil, err
	}
	if err := ValidateDiscount(req.Discount); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetWarehouse(ctx, req.WarehouseID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}

	line := &InventoryLine{
		WarehouseID: req.WarehouseID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Discount:    req.Discount,
	}
	if err := s.repo.CreateLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to stock product: %w", err)
	}

	return s.repo.GetLine(ctx, req.WarehouseID, req.ProductID)
}

// ListInventory returns one page of a warehouse's inventory lines. Page
// numbers below 1 select the first page; limits are clamped to the
// configured page size bounds.
func (s *Service) ListInventory(ctx context.Context, warehouseID uuid.UUID, page, limit int) ([]InventoryLine, error) {
	if _, err := s.repo.GetWarehouse(ctx, warehouseID); err != nil {
		return nil, err
	}

	lines, err := s.repo.ListLines(ctx, warehouseID, s.page(page, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve inventory: %w", err)
	}
	return lines, nil
}

// GetLine retrieves one inventory line
func (s *Service) GetLine(ctx context.Context, warehouseID, productID uuid.UUID) (*InventoryLine, error) {
	return s.repo.GetLine(ctx, warehouseID, productID)
}

// UpdateQuantity sets the on-hand quantity of a line
func (s *Service) UpdateQuantity(ctx context.Context, warehouseID, productID uuid.UUID, quantity int) (*InventoryLine, error) {
	return s.UpdateLine(ctx, &LineUpdateRequest{WarehouseID: warehouseID, ProductID: productID, Quantity: &quantity})
}

// UpdateDiscount sets the discount percent of a line
func (s *Service) UpdateDiscount(ctx context.Context, warehouseID, productID uuid.UUID, discount decimal.Decimal) (*InventoryLine, error) {
	return s.UpdateLine(ctx, &LineUpdateRequest{WarehouseID: warehouseID, ProductID: productID, Discount: &discount})
}

// UpdateLine validates every supplied field and applies them together.
// Invalid values are rejected, never clamped, and leave the line untouched.
func (s *Service) UpdateLine(ctx context.Context, req *LineUpdateRequest) (*InventoryLine, error) {
	if err := requireIDs(req.WarehouseID, req.ProductID); err != nil {
		return nil, err
	}

	patch := req.Patch()
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	if patch.Quantity != nil {
		if err := ValidateQuantity(*patch.Quantity); err != nil {
			return nil, err
		}
	}
	if patch.Discount != nil {
		if err := ValidateDiscount(*patch.Discount); err != nil {
			return nil, err
		}
	}

	line, err := s.repo.UpdateLine(ctx, req.WarehouseID, req.ProductID, patch)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"warehouse_id": req.WarehouseID,
		"product_id":   req.ProductID,
		"quantity":     line.Quantity,
		"discount":     line.Discount.String(),
	}).Info("Inventory line updated")

	return line, nil
}

// PRICING AND PURCHASES

// Calculate prices a purchase request without changing inventory
func (s *Service) Calculate(ctx context.Context, req *PurchaseRequest) (*Calculation, error) {
	lines, err := s.linesFor(ctx, req)
	if err != nil {
		return nil, err
	}
	return Quote(lines, req.Products)
}

// Purchase applies a purchase request atomically. A non-empty idempotency
// key makes retries of the same purchase return the first receipt instead
// of decrementing stock again.
func (s *Service) Purchase(ctx context.Context, req *PurchaseRequest, idempotencyKey string) (*Receipt, error) {
	if _, err := s.linesFor(ctx, req); err != nil {
		return nil, err
	}

	log := s.logger.WithField("warehouse_id", req.WarehouseID)

	useKey := idempotencyKey != "" && s.receipts != nil
	if useKey {
		replay, err := s.receipts.Claim(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			log.WithField("purchase_id", replay.PurchaseID).Info("Replaying purchase receipt")
			return replay, nil
		}
	}

	purchaseID := uuid.New()
	calc, err := s.repo.ApplyPurchase(ctx, purchaseID, *req)
	if err != nil {
		if useKey {
			rctx, cancel := receiptContext(ctx)
			defer cancel()
			if relErr := s.receipts.Release(rctx, idempotencyKey); relErr != nil {
				log.WithError(relErr).Warn("Failed to release idempotency key")
			}
		}
		if errors.Is(err, ErrInsufficientStock) {
			log.WithError(err).Info("Purchase rejected")
		}
		return nil, err
	}

	receipt := &Receipt{
		PurchaseID: purchaseID,
		Status:     PurchaseStatusSuccess,
		TotalSum:   calc.TotalSum,
		Items:      calc.Items,
	}

	if useKey {
		rctx, cancel := receiptContext(ctx)
		defer cancel()
		if err := s.receipts.Complete(rctx, idempotencyKey, receipt); err != nil {
			log.WithError(err).Warn("Failed to store purchase receipt")
		}
	}

	log.WithFields(logrus.Fields{
		"purchase_id": purchaseID,
		"total_sum":   receipt.TotalSum.String(),
		"lines":       len(receipt.Items),
	}).Info("Purchase committed")

	return receipt, nil
}

// receiptContext detaches receipt bookkeeping from the request, so a client
// hanging up after the stock moved cannot leave its key claimed
func receiptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), receiptWriteTimeout)
}

// linesFor checks the shape of a request and loads the lines it names
func (s *Service) linesFor(ctx context.Context, req *PurchaseRequest) ([]InventoryLine, error) {
	if req.WarehouseID == uuid.Nil {
		return nil, ErrMissingWarehouse
	}
	if len(req.Products) == 0 {
		return nil, ErrEmptyPurchase
	}
	if _, err := s.repo.GetWarehouse(ctx, req.WarehouseID); err != nil {
		return nil, err
	}

	lines, err := s.repo.FindLines(ctx, req.WarehouseID, ProductIDs(req.Products))
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return lines, nil
}

// ANALYTICS

// WarehouseAnalytics returns the per-product sales of a warehouse
func (s *Service) WarehouseAnalytics(ctx context.Context, warehouseID uuid.UUID) (*WarehouseAnalytics, error) {
	if _, err := s.repo.GetWarehouse(ctx, warehouseID); err != nil {
		return nil, err
	}

	records, err := s.repo.WarehouseSales(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve analytics: %w", err)
	}

	result := &WarehouseAnalytics{TotalSum: decimal.Zero, Analytics: records}
	for _, r := range records {
		result.TotalSum = result.TotalSum.Add(r.TotalSum)
	}
	return result, nil
}

// TopWarehouses ranks warehouses by revenue. A limit below 1 uses the
// configured default.
func (s *Service) TopWarehouses(ctx context.Context, limit int) ([]WarehouseRevenue, error) {
	if limit < 1 {
		limit = s.config.Inventory.TopWarehouseLimit
	}

	top, err := s.repo.TopWarehouses(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank warehouses: %w", err)
	}
	return top, nil
}

// Helper methods

func (s *Service) page(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = s.config.Inventory.DefaultPageSize
	}
	if size > s.config.Inventory.MaxPageSize {
		size = s.config.Inventory.MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func requireIDs(warehouseID, productID uuid.UUID) error {
	if warehouseID == uuid.Nil {
		return ErrMissingWarehouse
	}
	if productID == uuid.Nil {
		return ErrMissingProduct
	}
	return nil
}
