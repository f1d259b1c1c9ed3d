// internal/domain/purchase/snapshot.go
package purchase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

// InventoryReader fetches the full inventory of a warehouse
type InventoryReader interface {
	ListInventory(ctx context.Context, warehouseID uuid.UUID) ([]inventory.InventoryLine, error)
}

// Backend is the remote pricing and purchase contract used by a Session
type Backend interface {
	InventoryReader
	Calculate(ctx context.Context, req inventory.PurchaseRequest) (*inventory.Calculation, error)
	Purchase(ctx context.Context, req inventory.PurchaseRequest, idempotencyKey string) (*inventory.Receipt, error)
}

// LineBackend is the remote inventory edit contract used by an Editor
type LineBackend interface {
	InventoryReader
	UpdateQuantity(ctx context.Context, warehouseID, productID uuid.UUID, quantity int) (*inventory.InventoryLine, error)
	UpdateDiscount(ctx context.Context, warehouseID, productID uuid.UUID, discount decimal.Decimal) (*inventory.InventoryLine, error)
	UpdateLine(ctx context.Context, req inventory.LineUpdateRequest) (*inventory.InventoryLine, error)
}

// Snapshot is a read-only mirror of one warehouse's inventory. It is only
// ever replaced wholesale by Refresh.
type Snapshot struct {
	mu          sync.RWMutex
	reader      InventoryReader
	warehouseID uuid.UUID
	lines       []inventory.InventoryLine
	fetchedAt   time.Time
}

// NewSnapshot creates an empty snapshot of a warehouse
func NewSnapshot(reader InventoryReader, warehouseID uuid.UUID) *Snapshot {
	return &Snapshot{reader: reader, warehouseID: warehouseID}
}

// WarehouseID returns the mirrored warehouse
func (s *Snapshot) WarehouseID() uuid.UUID {
	return s.warehouseID
}

// Refresh re-fetches the whole inventory. The previous lines are kept when
// the fetch fails.
func (s *Snapshot) Refresh(ctx context.Context) ([]inventory.InventoryLine, error) {
	lines, err := s.reader.ListInventory(ctx, s.warehouseID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lines = lines
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return s.Lines(), nil
}

// Loaded reports whether a fetch has succeeded
func (s *Snapshot) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.fetchedAt.IsZero()
}

// FetchedAt returns the time of the last successful fetch
func (s *Snapshot) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// Lines returns a copy of the mirrored lines
func (s *Snapshot) Lines() []inventory.InventoryLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]inventory.InventoryLine, len(s.lines))
	copy(lines, s.lines)
	return lines
}

// Line returns the mirrored line of a product
func (s *Snapshot) Line(productID uuid.UUID) (inventory.InventoryLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, line := range s.lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return inventory.InventoryLine{}, false
}
