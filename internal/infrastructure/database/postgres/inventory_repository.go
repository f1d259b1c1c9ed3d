// internal/infrastructure/database/postgres/inventory_repository.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository implements inventory.Repository on PostgreSQL
type InventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository creates a new repository
func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// WAREHOUSES

// CreateWarehouse inserts a warehouse
func (r *InventoryRepository) CreateWarehouse(ctx context.Context, warehouse *inventory.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

// ListWarehouses returns all warehouses, oldest first
func (r *InventoryRepository) ListWarehouses(ctx context.Context) ([]inventory.Warehouse, error) {
	var warehouses []inventory.Warehouse
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

// GetWarehouse returns one warehouse
func (r *InventoryRepository) GetWarehouse(ctx context.Context, id uuid.UUID) (*inventory.Warehouse, error) {
	var warehouse inventory.Warehouse
	if err := r.db.WithContext(ctx).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, notFound(err, inventory.ErrWarehouseNotFound)
	}
	return &warehouse, nil
}

// PRODUCTS

// CreateProduct inserts a product
func (r *InventoryRepository) CreateProduct(ctx context.Context, product *inventory.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateProduct saves every column of a product
func (r *InventoryRepository) UpdateProduct(ctx context.Context, product *inventory.Product) error {
	result := r.db.WithContext(ctx).Model(product).Select("*").Omit("id", "created_at").Updates(product)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return inventory.ErrProductNotFound
	}
	return nil
}

// ListProducts returns the catalog, oldest first
func (r *InventoryRepository) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	var products []inventory.Product
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns one product
func (r *InventoryRepository) GetProduct(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	var product inventory.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err, inventory.ErrProductNotFound)
	}
	return &product, nil
}

// INVENTORY LINES

// CreateLine inserts an inventory line
func (r *InventoryRepository) CreateLine(ctx context.Context, line *inventory.InventoryLine) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(line).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return inventory.ErrLineExists
	}
	return err
}

// ListLines returns one page of a warehouse's lines
func (r *InventoryRepository) ListLines(ctx context.Context, warehouseID uuid.UUID, page inventory.Page) ([]inventory.InventoryLine, error) {
	lines := []inventory.InventoryLine{}
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("warehouse_id = ?", warehouseID).
		Order("created_at, id").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// FindLines returns the lines of the given products in a warehouse
func (r *InventoryRepository) FindLines(ctx context.Context, warehouseID uuid.UUID, productIDs []uuid.UUID) ([]inventory.InventoryLine, error) {
	var lines []inventory.InventoryLine
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("warehouse_id = ? AND product_id IN ?", warehouseID, productIDs).
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// GetLine returns one line with its product
func (r *InventoryRepository) GetLine(ctx context.Context, warehouseID, productID uuid.UUID) (*inventory.InventoryLine, error) {
	var line inventory.InventoryLine
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		First(&line).Error
	if err != nil {
		return nil, notFound(err, inventory.ErrLineNotFound)
	}
	return &line, nil
}

// UpdateLine locks one line and applies the patch in a transaction
func (r *InventoryRepository) UpdateLine(ctx context.Context, warehouseID, productID uuid.UUID, patch inventory.LinePatch) (*inventory.InventoryLine, error) {
	var updated inventory.InventoryLine

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var line inventory.InventoryLine
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
			First(&line).Error
		if err != nil {
			return notFound(err, inventory.ErrLineNotFound)
		}

		updates := map[string]interface{}{"updated_at": time.Now().UTC()}
		if patch.Quantity != nil {
			updates["quantity"] = *patch.Quantity
		}
		if patch.Discount != nil {
			updates["discount"] = *patch.Discount
		}

		if err := tx.Model(&inventory.InventoryLine{}).Where("id = ?", line.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update inventory line: %w", err)
		}

		if patch.Quantity != nil && *patch.Quantity != line.Quantity {
			movement := newMovement(line, inventory.MovementTypeAdjustment, inventory.ReasonAdjustment, *patch.Quantity, nil)
			if err := tx.Create(movement).Error; err != nil {
				return fmt.Errorf("failed to record movement: %w", err)
			}
		}

		return tx.Preload("Product").First(&updated, "id = ?", line.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// PURCHASES

// ApplyPurchase prices and applies a purchase in one transaction. The
// requested rows are locked in product id order before stock is checked, so
// concurrent purchases of the same lines serialize instead of overselling.
func (r *InventoryRepository) ApplyPurchase(ctx context.Context, purchaseID uuid.UUID, request inventory.PurchaseRequest) (*inventory.Calculation, error) {
	var calc *inventory.Calculation

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var warehouse inventory.Warehouse
		if err := tx.First(&warehouse, "id = ?", request.WarehouseID).Error; err != nil {
			return notFound(err, inventory.ErrWarehouseNotFound)
		}

		var lines []inventory.InventoryLine
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Product").
			Where("warehouse_id = ? AND product_id IN ?", request.WarehouseID, inventory.ProductIDs(request.Products)).
			Order("product_id").
			Find(&lines).Error
		if err != nil {
			return fmt.Errorf("failed to lock inventory: %w", err)
		}

		calc, err = inventory.Quote(lines, request.Products)
		if err != nil {
			return err
		}

		byProduct := make(map[uuid.UUID]inventory.InventoryLine, len(lines))
		for _, line := range lines {
			byProduct[line.ProductID] = line
		}

		now := time.Now().UTC()
		for _, item := range calc.Items {
			line := byProduct[item.ProductID]
			newQuantity := line.Quantity - item.Quantity

			err := tx.Model(&inventory.InventoryLine{}).
				Where("id = ?", line.ID).
				Updates(map[string]interface{}{"quantity": newQuantity, "updated_at": now}).Error
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}

			movement := newMovement(line, inventory.MovementTypeOutbound, inventory.ReasonSale, newQuantity, &purchaseID)
			if err := tx.Create(movement).Error; err != nil {
				return fmt.Errorf("failed to record movement: %w", err)
			}

			record := &inventory.SalesRecord{
				WarehouseID:  request.WarehouseID,
				ProductID:    item.ProductID,
				SoldQuantity: item.Quantity,
				TotalSum:     item.TotalPrice,
				UpdatedAt:    now,
			}
			err = tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "warehouse_id"}, {Name: "product_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"sold_quantity": gorm.Expr("analytics.sold_quantity + EXCLUDED.sold_quantity"),
					"total_sum":     gorm.Expr("analytics.total_sum + EXCLUDED.total_sum"),
					"updated_at":    gorm.Expr("EXCLUDED.updated_at"),
				}),
			}).Create(record).Error
			if err != nil {
				return fmt.Errorf("failed to update analytics: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return calc, nil
}

// ANALYTICS

// WarehouseSales returns the sales records of a warehouse, best sellers first
func (r *InventoryRepository) WarehouseSales(ctx context.Context, warehouseID uuid.UUID) ([]inventory.SalesRecord, error) {
	records := []inventory.SalesRecord{}
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("total_sum DESC, product_id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// TopWarehouses ranks warehouses by accumulated revenue
func (r *InventoryRepository) TopWarehouses(ctx context.Context, limit int) ([]inventory.WarehouseRevenue, error) {
	result := []inventory.WarehouseRevenue{}
	err := r.db.WithContext(ctx).
		Table("analytics AS a").
		Select("a.warehouse_id, w.address, SUM(a.total_sum) AS total_sum").
		Joins("JOIN warehouses w ON w.id = a.warehouse_id").
		Group("a.warehouse_id, w.address").
		Order("total_sum DESC, a.warehouse_id").
		Limit(limit).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Helper functions

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func newMovement(line inventory.InventoryLine, movementType inventory.MovementType, reason inventory.MovementReason, newQuantity int, reference *uuid.UUID) *inventory.InventoryMovement {
	return &inventory.InventoryMovement{
		InventoryLineID:  line.ID,
		MovementType:     movementType,
		Reason:           reason,
		Quantity:         newQuantity - line.Quantity,
		PreviousQuantity: line.Quantity,
		NewQuantity:      newQuantity,
		ReferenceID:      reference,
	}
}
