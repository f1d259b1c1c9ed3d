package purchase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
	"github.com/your-org/warehouse-backend/internal/pkg/logger"
)

func newEditor(mode EditMode) (*Editor, *mockBackend, uuid.UUID) {
	backend := &mockBackend{}
	warehouseID := uuid.New()
	backend.On("ListInventory", mock.Anything, warehouseID).Return([]inventory.InventoryLine{}, nil)
	return NewEditor(backend, NewSnapshot(backend, warehouseID), mode, logger.Discard()), backend, warehouseID
}

func intPtr(v int) *int { return &v }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestEditor_RejectsOutOfRangeWithoutCalling(t *testing.T) {
	editor, backend, _ := newEditor(EditModeAtomic)
	ctx := context.Background()
	productID := uuid.New()

	_, err := editor.UpdateDiscount(ctx, productID, decimal.NewFromInt(150))
	assert.ErrorIs(t, err, inventory.ErrInvalidDiscount)

	_, err = editor.UpdateQuantity(ctx, productID, -1)
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	_, err = editor.Apply(ctx, LineEdit{ProductID: productID, Quantity: intPtr(5), Discount: decPtr(101)})
	assert.ErrorIs(t, err, inventory.ErrInvalidDiscount)

	_, err = editor.Apply(ctx, LineEdit{ProductID: productID})
	assert.ErrorIs(t, err, inventory.ErrEmptyPatch)

	assert.Empty(t, backend.Calls)
}

func TestEditor_UpdateRefreshesSnapshot(t *testing.T) {
	editor, backend, warehouseID := newEditor(EditModeAtomic)
	productID := uuid.New()
	updated := &inventory.InventoryLine{ProductID: productID, Quantity: 7}
	backend.On("UpdateQuantity", mock.Anything, warehouseID, productID, 7).Return(updated, nil)

	line, err := editor.UpdateQuantity(context.Background(), productID, 7)
	require.NoError(t, err)
	assert.Equal(t, updated, line)
	backend.AssertNumberOfCalls(t, "ListInventory", 1)
}

func TestEditor_AtomicModeSendsOneRequest(t *testing.T) {
	editor, backend, warehouseID := newEditor(EditModeAtomic)
	productID := uuid.New()
	edit := LineEdit{ProductID: productID, Quantity: intPtr(3), Discount: decPtr(20)}

	backend.On("UpdateLine", mock.Anything, inventory.LineUpdateRequest{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Quantity:    edit.Quantity,
		Discount:    edit.Discount,
	}).Return(&inventory.InventoryLine{ProductID: productID}, nil)

	_, err := editor.Apply(context.Background(), edit)
	require.NoError(t, err)
	backend.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "UpdateDiscount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	backend.AssertNumberOfCalls(t, "ListInventory", 1)
}

func TestEditor_TwoCallModeReportsPartialUpdate(t *testing.T) {
	editor, backend, warehouseID := newEditor(EditModeTwoCall)
	productID := uuid.New()

	backend.On("UpdateQuantity", mock.Anything, warehouseID, productID, 3).
		Return(&inventory.InventoryLine{ProductID: productID, Quantity: 3}, nil)
	backend.On("UpdateDiscount", mock.Anything, warehouseID, productID, decimal.NewFromInt(20)).
		Return(nil, ErrTransport)

	_, err := editor.Apply(context.Background(), LineEdit{ProductID: productID, Quantity: intPtr(3), Discount: decPtr(20)})

	var partial *PartialUpdateError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{"quantity"}, partial.Applied)
	assert.Equal(t, "discount", partial.Failed)
	assert.ErrorIs(t, err, ErrTransport)
	backend.AssertNumberOfCalls(t, "ListInventory", 1)
}

func TestEditor_TwoCallModeFirstFailureIsPlain(t *testing.T) {
	editor, backend, warehouseID := newEditor(EditModeTwoCall)
	productID := uuid.New()

	backend.On("UpdateQuantity", mock.Anything, warehouseID, productID, 3).Return(nil, inventory.ErrLineNotFound)

	_, err := editor.Apply(context.Background(), LineEdit{ProductID: productID, Quantity: intPtr(3), Discount: decPtr(20)})
	assert.ErrorIs(t, err, inventory.ErrNotFound)

	var partial *PartialUpdateError
	assert.False(t, errors.As(err, &partial))
	backend.AssertNotCalled(t, "UpdateDiscount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
