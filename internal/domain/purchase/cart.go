// internal/domain/purchase/cart.go
package purchase

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

// CartEntry is one requested product and quantity
type CartEntry struct {
	ProductID uuid.UUID
	Quantity  int
}

// Cart maps products of one warehouse to requested quantities. Entries with
// quantity 0 are kept for ordering but are logically absent.
type Cart struct {
	warehouseID uuid.UUID
	quantities  map[uuid.UUID]int
	order       []uuid.UUID
	stocked     map[uuid.UUID]struct{}
}

// NewCart creates an empty cart for a warehouse
func NewCart(warehouseID uuid.UUID) *Cart {
	return &Cart{
		warehouseID: warehouseID,
		quantities:  make(map[uuid.UUID]int),
	}
}

// WarehouseID returns the warehouse the cart is scoped to
func (c *Cart) WarehouseID() uuid.UUID {
	return c.warehouseID
}

// Restrict limits the cart to the products of the given lines. Entries for
// products no longer stocked are dropped; it reports whether any was.
func (c *Cart) Restrict(lines []inventory.InventoryLine) bool {
	c.stocked = make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		c.stocked[line.ProductID] = struct{}{}
	}

	dropped := false
	kept := c.order[:0]
	for _, id := range c.order {
		if _, ok := c.stocked[id]; ok {
			kept = append(kept, id)
			continue
		}
		if c.quantities[id] > 0 {
			dropped = true
		}
		delete(c.quantities, id)
	}
	c.order = kept
	return dropped
}

// SetQuantity replaces the requested quantity of a product. Negative values
// become 0; stock is not checked here.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) error {
	if c.stocked != nil {
		if _, ok := c.stocked[productID]; !ok {
			return inventory.ErrUnknownProduct
		}
	}

	if quantity < 0 {
		quantity = 0
	}
	if _, seen := c.quantities[productID]; !seen {
		c.order = append(c.order, productID)
	}
	c.quantities[productID] = quantity
	return nil
}

// SetQuantityInput is SetQuantity for raw user input; anything that is not
// an integer counts as 0.
func (c *Cart) SetQuantityInput(productID uuid.UUID, raw string) error {
	quantity, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		quantity = 0
	}
	return c.SetQuantity(productID, quantity)
}

// Quantity returns the requested quantity of a product
func (c *Cart) Quantity(productID uuid.UUID) int {
	return c.quantities[productID]
}

// Entries returns the entries with a positive quantity in first-insertion order
func (c *Cart) Entries() []CartEntry {
	var entries []CartEntry
	for _, id := range c.order {
		if q := c.quantities[id]; q > 0 {
			entries = append(entries, CartEntry{ProductID: id, Quantity: q})
		}
	}
	return entries
}

// IsEmpty reports whether no product has a positive quantity
func (c *Cart) IsEmpty() bool {
	for _, q := range c.quantities {
		if q > 0 {
			return false
		}
	}
	return true
}

// ToPurchaseRequest builds the request payload. Products is empty when
// nothing is selected, and such a request must not be sent.
func (c *Cart) ToPurchaseRequest() inventory.PurchaseRequest {
	req := inventory.PurchaseRequest{
		WarehouseID: c.warehouseID,
		Products:    []inventory.PurchaseLine{},
	}
	for _, e := range c.Entries() {
		req.Products = append(req.Products, inventory.PurchaseLine{ProductID: e.ProductID, Quantity: e.Quantity})
	}
	return req
}

// Reset clears every entry
func (c *Cart) Reset() {
	c.quantities = make(map[uuid.UUID]int)
	c.order = nil
}

// sameRequest reports whether two requests name the same lines in the same order
func sameRequest(a, b inventory.PurchaseRequest) bool {
	if a.WarehouseID != b.WarehouseID || len(a.Products) != len(b.Products) {
		return false
	}
	for i := range a.Products {
		if a.Products[i] != b.Products[i] {
			return false
		}
	}
	return true
}
