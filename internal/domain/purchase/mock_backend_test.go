package purchase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListInventory(ctx context.Context, warehouseID uuid.UUID) ([]inventory.InventoryLine, error) {
	args := m.Called(ctx, warehouseID)
	lines, _ := args.Get(0).([]inventory.InventoryLine)
	return lines, args.Error(1)
}

func (m *mockBackend) Calculate(ctx context.Context, req inventory.PurchaseRequest) (*inventory.Calculation, error) {
	args := m.Called(ctx, req)
	calc, _ := args.Get(0).(*inventory.Calculation)
	return calc, args.Error(1)
}

func (m *mockBackend) Purchase(ctx context.Context, req inventory.PurchaseRequest, idempotencyKey string) (*inventory.Receipt, error) {
	args := m.Called(ctx, req, idempotencyKey)
	receipt, _ := args.Get(0).(*inventory.Receipt)
	return receipt, args.Error(1)
}

func (m *mockBackend) UpdateQuantity(ctx context.Context, warehouseID, productID uuid.UUID, quantity int) (*inventory.InventoryLine, error) {
	args := m.Called(ctx, warehouseID, productID, quantity)
	line, _ := args.Get(0).(*inventory.InventoryLine)
	return line, args.Error(1)
}

func (m *mockBackend) UpdateDiscount(ctx context.Context, warehouseID, productID uuid.UUID, discount decimal.Decimal) (*inventory.InventoryLine, error) {
	args := m.Called(ctx, warehouseID, productID, discount)
	line, _ := args.Get(0).(*inventory.InventoryLine)
	return line, args.Error(1)
}

func (m *mockBackend) UpdateLine(ctx context.Context, req inventory.LineUpdateRequest) (*inventory.InventoryLine, error) {
	args := m.Called(ctx, req)
	line, _ := args.Get(0).(*inventory.InventoryLine)
	return line, args.Error(1)
}
