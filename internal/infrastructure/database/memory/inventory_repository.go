// internal/infrastructure/database/memory/inventory_repository.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

type lineKey struct {
	warehouseID uuid.UUID
	productID   uuid.UUID
}

// InventoryRepository is a process-local inventory.Repository. One mutex
// serializes every operation, so purchases against the same lines never
// interleave.
type InventoryRepository struct {
	mu sync.Mutex

	warehouses     map[uuid.UUID]inventory.Warehouse
	warehouseOrder []uuid.UUID
	products       map[uuid.UUID]inventory.Product
	productOrder   []uuid.UUID
	lines          map[lineKey]inventory.InventoryLine
	lineOrder      []lineKey
	sales          map[lineKey]inventory.SalesRecord
	movements      []inventory.InventoryMovement
}

// NewInventoryRepository creates an empty repository
func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		warehouses: make(map[uuid.UUID]inventory.Warehouse),
		products:   make(map[uuid.UUID]inventory.Product),
		lines:      make(map[lineKey]inventory.InventoryLine),
		sales:      make(map[lineKey]inventory.SalesRecord),
	}
}

// CreateWarehouse stores a new warehouse
func (r *InventoryRepository) CreateWarehouse(ctx context.Context, warehouse *inventory.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := warehouse.BeforeCreate(nil); err != nil {
		return err
	}
	now := time.Now()
	warehouse.CreatedAt, warehouse.UpdatedAt = now, now

	r.warehouses[warehouse.ID] = *warehouse
	r.warehouseOrder = append(r.warehouseOrder, warehouse.ID)
	return nil
}

// ListWarehouses returns warehouses in creation order
func (r *InventoryRepository) ListWarehouses(ctx context.Context) ([]inventory.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]inventory.Warehouse, 0, len(r.warehouseOrder))
	for _, id := range r.warehouseOrder {
		result = append(result, r.warehouses[id])
	}
	return result, nil
}

// GetWarehouse returns one warehouse
func (r *InventoryRepository) GetWarehouse(ctx context.Context, id uuid.UUID) (*inventory.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.warehouses[id]
	if !ok {
		return nil, inventory.ErrWarehouseNotFound
	}
	return &w, nil
}

// CreateProduct stores a new product
func (r *InventoryRepository) CreateProduct(ctx context.Context, product *inventory.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := product.BeforeCreate(nil); err != nil {
		return err
	}
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now

	r.products[product.ID] = *product
	r.productOrder = append(r.productOrder, product.ID)
	return nil
}

// UpdateProduct replaces a stored product
func (r *InventoryRepository) UpdateProduct(ctx context.Context, product *inventory.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return inventory.ErrProductNotFound
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// ListProducts returns products in creation order
func (r *InventoryRepository) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]inventory.Product, 0, len(r.productOrder))
	for _, id := range r.productOrder {
		result = append(result, r.products[id])
	}
	return result, nil
}

// GetProduct returns one product
func (r *InventoryRepository) GetProduct(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, inventory.ErrProductNotFound
	}
	return &p, nil
}

// CreateLine stocks a product in a warehouse
func (r *InventoryRepository) CreateLine(ctx context.Context, line *inventory.InventoryLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := lineKey{line.WarehouseID, line.ProductID}
	if _, exists := r.lines[key]; exists {
		return inventory.ErrLineExists
	}

	if err := line.BeforeCreate(nil); err != nil {
		return err
	}
	now := time.Now()
	line.CreatedAt, line.UpdatedAt = now, now

	stored := *line
	stored.Product = nil
	r.lines[key] = stored
	r.lineOrder = append(r.lineOrder, key)
	return nil
}

// ListLines returns one page of a warehouse's lines in stocking order
func (r *InventoryRepository) ListLines(ctx context.Context, warehouseID uuid.UUID, page inventory.Page) ([]inventory.InventoryLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []inventory.InventoryLine
	for _, key := range r.lineOrder {
		if key.warehouseID == warehouseID {
			all = append(all, r.withProduct(r.lines[key]))
		}
	}

	start := page.Offset()
	if start >= len(all) {
		return []inventory.InventoryLine{}, nil
	}
	end := start + page.Size
	if page.Size <= 0 || end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// FindLines returns the lines of the given products that the warehouse stocks
func (r *InventoryRepository) FindLines(ctx context.Context, warehouseID uuid.UUID, productIDs []uuid.UUID) ([]inventory.InventoryLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.findLines(warehouseID, productIDs), nil
}

// GetLine returns one line
func (r *InventoryRepository) GetLine(ctx context.Context, warehouseID, productID uuid.UUID) (*inventory.InventoryLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line, ok := r.lines[lineKey{warehouseID, productID}]
	if !ok {
		return nil, inventory.ErrLineNotFound
	}
	line = r.withProduct(line)
	return &line, nil
}

// UpdateLine applies a patch to one line
func (r *InventoryRepository) UpdateLine(ctx context.Context, warehouseID, productID uuid.UUID, patch inventory.LinePatch) (*inventory.InventoryLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := lineKey{warehouseID, productID}
	line, ok := r.lines[key]
	if !ok {
		return nil, inventory.ErrLineNotFound
	}

	if patch.Quantity != nil && *patch.Quantity != line.Quantity {
		r.record(line, inventory.MovementTypeAdjustment, inventory.ReasonAdjustment, *patch.Quantity, nil)
		line.Quantity = *patch.Quantity
	}
	if patch.Discount != nil {
		line.Discount = *patch.Discount
	}
	line.UpdatedAt = time.Now()
	r.lines[key] = line

	line = r.withProduct(line)
	return &line, nil
}

// ApplyPurchase prices and applies a purchase under the repository lock
func (r *InventoryRepository) ApplyPurchase(ctx context.Context, purchaseID uuid.UUID, request inventory.PurchaseRequest) (*inventory.Calculation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.warehouses[request.WarehouseID]; !ok {
		return nil, inventory.ErrWarehouseNotFound
	}

	calc, err := inventory.Quote(r.findLines(request.WarehouseID, inventory.ProductIDs(request.Products)), request.Products)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	for _, item := range calc.Items {
		key := lineKey{request.WarehouseID, item.ProductID}

		line := r.lines[key]
		r.record(line, inventory.MovementTypeOutbound, inventory.ReasonSale, line.Quantity-item.Quantity, &purchaseID)
		line.Quantity -= item.Quantity
		line.UpdatedAt = now
		r.lines[key] = line

		record, ok := r.sales[key]
		if !ok {
			record = inventory.SalesRecord{
				WarehouseID: request.WarehouseID,
				ProductID:   item.ProductID,
				TotalSum:    decimal.Zero,
			}
			_ = record.BeforeCreate(nil)
		}
		record.SoldQuantity += item.Quantity
		record.TotalSum = record.TotalSum.Add(item.TotalPrice)
		record.UpdatedAt = now
		r.sales[key] = record
	}

	return calc, nil
}

// WarehouseSales returns the sales records of a warehouse, best sellers first
func (r *InventoryRepository) WarehouseSales(ctx context.Context, warehouseID uuid.UUID) ([]inventory.SalesRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := []inventory.SalesRecord{}
	for key, record := range r.sales {
		if key.warehouseID == warehouseID {
			result = append(result, record)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if c := result[i].TotalSum.Cmp(result[j].TotalSum); c != 0 {
			return c > 0
		}
		return result[i].ProductID.String() < result[j].ProductID.String()
	})
	return result, nil
}

// TopWarehouses ranks warehouses with sales by revenue
func (r *InventoryRepository) TopWarehouses(ctx context.Context, limit int) ([]inventory.WarehouseRevenue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	totals := make(map[uuid.UUID]decimal.Decimal)
	for key, record := range r.sales {
		totals[key.warehouseID] = totals[key.warehouseID].Add(record.TotalSum)
	}

	result := make([]inventory.WarehouseRevenue, 0, len(totals))
	for id, total := range totals {
		result = append(result, inventory.WarehouseRevenue{
			WarehouseID: id,
			Address:     r.warehouses[id].Address,
			TotalSum:    total,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if c := result[i].TotalSum.Cmp(result[j].TotalSum); c != 0 {
			return c > 0
		}
		return result[i].WarehouseID.String() < result[j].WarehouseID.String()
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Movements returns the recorded stock movements of a line, oldest first
func (r *InventoryRepository) Movements(lineID uuid.UUID) []inventory.InventoryMovement {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []inventory.InventoryMovement
	for _, m := range r.movements {
		if m.InventoryLineID == lineID {
			result = append(result, m)
		}
	}
	return result
}

// Helper methods; callers hold r.mu

func (r *InventoryRepository) findLines(warehouseID uuid.UUID, productIDs []uuid.UUID) []inventory.InventoryLine {
	result := make([]inventory.InventoryLine, 0, len(productIDs))
	for _, productID := range productIDs {
		if line, ok := r.lines[lineKey{warehouseID, productID}]; ok {
			result = append(result, r.withProduct(line))
		}
	}
	return result
}

func (r *InventoryRepository) withProduct(line inventory.InventoryLine) inventory.InventoryLine {
	if p, ok := r.products[line.ProductID]; ok {
		line.Product = &p
	}
	return line
}

func (r *InventoryRepository) record(line inventory.InventoryLine, movementType inventory.MovementType, reason inventory.MovementReason, newQuantity int, reference *uuid.UUID) {
	m := inventory.InventoryMovement{
		InventoryLineID:  line.ID,
		MovementType:     movementType,
		Reason:           reason,
		Quantity:         newQuantity - line.Quantity,
		PreviousQuantity: line.Quantity,
		NewQuantity:      newQuantity,
		ReferenceID:      reference,
		CreatedAt:        time.Now(),
	}
	_ = m.BeforeCreate(nil)
	r.movements = append(r.movements, m)
}
