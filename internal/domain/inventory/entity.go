// internal/domain/inventory/entity.go
package inventory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Amounts travel as JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

// MovementType represents the type of inventory movement
type MovementType string

const (
	MovementTypeOutbound   MovementType = "outbound"   // Sale
	MovementTypeAdjustment MovementType = "adjustment" // Manual quantity edit
)

// MovementReason represents the reason for inventory movement
type MovementReason string

const (
	ReasonSale       MovementReason = "sale"
	ReasonAdjustment MovementReason = "adjustment"
)

// MaxDiscount is the upper bound of a discount percentage
var MaxDiscount = decimal.NewFromInt(100)

// Warehouse represents a storage location
type Warehouse struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Address   string    `gorm:"type:text;not null" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product represents a catalog product
type Product struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"not null;size:255;index" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Characteristics json.RawMessage `gorm:"type:jsonb" json:"characteristics"`
	Weight          float64         `gorm:"default:0" json:"weight"`
	Barcode         string          `gorm:"size:64;index" json:"barcode"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// InventoryLine represents the stock of one product in one warehouse
type InventoryLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_warehouse_product" json:"warehouse_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_warehouse_product" json:"product_id"`
	Quantity    int             `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Discount    decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount"` // percent
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relationships
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName overrides the table name
func (InventoryLine) TableName() string {
	return "inventory"
}

// InventoryMovement represents a record of stock movement
type InventoryMovement struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	InventoryLineID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"inventory_line_id"`
	MovementType     MovementType   `gorm:"not null;size:20" json:"movement_type"`
	Reason           MovementReason `gorm:"not null;size:20" json:"reason"`
	Quantity         int            `gorm:"not null" json:"quantity"`
	PreviousQuantity int            `gorm:"not null" json:"previous_quantity"`
	NewQuantity      int            `gorm:"not null" json:"new_quantity"`
	ReferenceID      *uuid.UUID     `gorm:"type:uuid;index" json:"reference_id,omitempty"` // purchase id
	CreatedAt        time.Time      `json:"created_at"`
}

// SalesRecord accumulates what a warehouse sold of one product
type SalesRecord struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	WarehouseID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_analytics_warehouse_product" json:"warehouse_id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_analytics_warehouse_product" json:"product_id"`
	SoldQuantity int             `gorm:"not null;default:0" json:"sold_quantity"`
	TotalSum     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_sum"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName overrides the table name
func (SalesRecord) TableName() string {
	return "analytics"
}

// WarehouseRevenue is a warehouse ranked by its sales
type WarehouseRevenue struct {
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Address     string          `json:"address"`
	TotalSum    decimal.Decimal `json:"total_sum"`
}

// WarehouseAnalytics is the sales breakdown of one warehouse
type WarehouseAnalytics struct {
	TotalSum  decimal.Decimal `json:"total_sum"`
	Analytics []SalesRecord   `json:"analytics"`
}

// PurchaseLine is one requested product and quantity
type PurchaseLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// PurchaseRequest is the body of both calculate and purchase calls
type PurchaseRequest struct {
	WarehouseID uuid.UUID      `json:"warehouse_id"`
	Products    []PurchaseLine `json:"products"`
}

// PricedLine is one priced line of a calculation
type PricedLine struct {
	ProductID         uuid.UUID       `json:"product_id"`
	Name              string          `json:"name"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	PriceWithDiscount decimal.Decimal `json:"price_with_discount"`
	TotalPrice        decimal.Decimal `json:"total_price"`
}

// Calculation is the priced preview of a purchase request
type Calculation struct {
	TotalSum decimal.Decimal `json:"total_sum"`
	Items    []PricedLine    `json:"items"`
}

// Receipt is the committed result of a purchase
type Receipt struct {
	PurchaseID uuid.UUID       `json:"purchase_id"`
	Status     string          `json:"status"`
	TotalSum   decimal.Decimal `json:"total_sum"`
	Items      []PricedLine    `json:"items"`
}

// LinePatch carries the optional fields of an inventory line edit
type LinePatch struct {
	Quantity *int
	Discount *decimal.Decimal
}

// IsEmpty reports whether the patch changes nothing
func (p LinePatch) IsEmpty() bool {
	return p.Quantity == nil && p.Discount == nil
}

// Page selects a window of a listing; page numbers start at 1
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Entity methods

// BeforeCreate assigns an id when none was provided
func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// BeforeCreate assigns an id when none was provided
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if len(p.Characteristics) == 0 {
		p.Characteristics = json.RawMessage("{}")
	}
	return nil
}

// BeforeCreate assigns an id when none was provided
func (l *InventoryLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// BeforeCreate assigns an id when none was provided
func (m *InventoryMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate assigns an id when none was provided
func (r *SalesRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ProductName returns the joined product name, or an empty string
func (l *InventoryLine) ProductName() string {
	if l.Product == nil {
		return ""
	}
	return l.Product.Name
}

// IsOutOfStock checks if the line has no stock left
func (l *InventoryLine) IsOutOfStock() bool {
	return l.Quantity <= 0
}

// CanFulfill checks if there's enough stock for the requested quantity
func (l *InventoryLine) CanFulfill(quantity int) bool {
	return l.Quantity >= quantity
}
