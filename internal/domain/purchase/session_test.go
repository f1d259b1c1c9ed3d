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

type sessionFixture struct {
	backend     *mockBackend
	session     *Session
	warehouseID uuid.UUID
	productID   uuid.UUID
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		backend:     &mockBackend{},
		warehouseID: uuid.New(),
		productID:   uuid.New(),
	}
	f.backend.On("ListInventory", mock.Anything, f.warehouseID).Return([]inventory.InventoryLine{{
		WarehouseID: f.warehouseID,
		ProductID:   f.productID,
		Quantity:    10,
		Price:       decimal.NewFromInt(100),
		Discount:    decimal.NewFromInt(10),
	}}, nil)

	f.session = NewSession(f.backend, NewSnapshot(f.backend, f.warehouseID), logger.Discard())
	require.NoError(t, f.session.Open(context.Background()))
	return f
}

func (f *sessionFixture) request(quantity int) inventory.PurchaseRequest {
	return inventory.PurchaseRequest{
		WarehouseID: f.warehouseID,
		Products:    []inventory.PurchaseLine{{ProductID: f.productID, Quantity: quantity}},
	}
}

func (f *sessionFixture) calculation(quantity int) *inventory.Calculation {
	total := decimal.NewFromInt(int64(90 * quantity))
	return &inventory.Calculation{
		TotalSum: total,
		Items: []inventory.PricedLine{{
			ProductID:         f.productID,
			Quantity:          quantity,
			Price:             decimal.NewFromInt(100),
			PriceWithDiscount: decimal.NewFromInt(90),
			TotalPrice:        total,
		}},
	}
}

func TestSession_OpenLoadsSnapshot(t *testing.T) {
	f := newSessionFixture(t)

	assert.Equal(t, StateIdle, f.session.State())
	assert.True(t, f.session.Snapshot().Loaded())
	assert.ErrorIs(t, f.session.SetQuantity(uuid.New(), 1), inventory.ErrUnknownProduct)
}

func TestSession_CalculateEmptyCartIsNoop(t *testing.T) {
	f := newSessionFixture(t)

	calc, err := f.session.Calculate(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, calc)
	f.backend.AssertNotCalled(t, "Calculate", mock.Anything, mock.Anything)
}

func TestSession_MutationInvalidatesCalculation(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.backend.On("Calculate", mock.Anything, f.request(3)).Return(f.calculation(3), nil)

	require.NoError(t, f.session.SetQuantity(f.productID, 3))
	assert.Equal(t, StateBuilding, f.session.State())

	calc, err := f.session.Calculate(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(270).Equal(calc.TotalSum))
	assert.Equal(t, StateCalculated, f.session.State())
	assert.True(t, f.session.Committable())

	require.NoError(t, f.session.SetQuantity(f.productID, 4))
	assert.Nil(t, f.session.Calculation())
	assert.False(t, f.session.Committable())
	assert.Equal(t, StateBuilding, f.session.State())

	_, err = f.session.Commit(ctx)
	assert.ErrorIs(t, err, ErrNoCalculation)
	f.backend.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_CommitSuccessResetsAndRefreshes(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	receipt := &inventory.Receipt{PurchaseID: uuid.New(), Status: inventory.PurchaseStatusSuccess}

	f.backend.On("Calculate", mock.Anything, f.request(3)).Return(f.calculation(3), nil)
	f.backend.On("Purchase", mock.Anything, f.request(3), mock.AnythingOfType("string")).Return(receipt, nil)

	require.NoError(t, f.session.SetQuantity(f.productID, 3))
	_, err := f.session.Calculate(ctx)
	require.NoError(t, err)

	got, err := f.session.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, receipt, got)
	assert.Equal(t, StateCommitted, f.session.State())
	assert.Empty(t, f.session.Entries())
	assert.Nil(t, f.session.Calculation())
	f.backend.AssertNumberOfCalls(t, "ListInventory", 2)
}

func TestSession_StockRejectionKeepsCartButBlocksCommit(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	stockErr := &inventory.StockError{ProductID: f.productID, Available: 2, Requested: 3}

	f.backend.On("Calculate", mock.Anything, f.request(3)).Return(f.calculation(3), nil)
	f.backend.On("Purchase", mock.Anything, f.request(3), mock.Anything).Return(nil, stockErr).Once()

	require.NoError(t, f.session.SetQuantity(f.productID, 3))
	_, err := f.session.Calculate(ctx)
	require.NoError(t, err)

	_, err = f.session.Commit(ctx)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, StateFailed, f.session.State())
	assert.ErrorIs(t, f.session.LastError(), inventory.ErrInsufficientStock)
	assert.Equal(t, 3, f.session.Quantity(f.productID))
	assert.NotNil(t, f.session.Calculation())
	assert.False(t, f.session.Committable())

	_, err = f.session.Commit(ctx)
	assert.ErrorIs(t, err, ErrNotCommittable)
	f.backend.AssertNumberOfCalls(t, "Purchase", 1)
}

func TestSession_RetriedCommitReusesIdempotencyKey(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	var keys []string

	f.backend.On("Calculate", mock.Anything, f.request(2)).Return(f.calculation(2), nil)
	f.backend.On("Purchase", mock.Anything, f.request(2), mock.Anything).
		Run(func(args mock.Arguments) { keys = append(keys, args.String(2)) }).
		Return(nil, ErrTransport).Once()
	f.backend.On("Purchase", mock.Anything, f.request(2), mock.Anything).
		Run(func(args mock.Arguments) { keys = append(keys, args.String(2)) }).
		Return(&inventory.Receipt{PurchaseID: uuid.New()}, nil).Once()

	require.NoError(t, f.session.SetQuantity(f.productID, 2))
	_, err := f.session.Calculate(ctx)
	require.NoError(t, err)

	_, err = f.session.Commit(ctx)
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, f.session.Committable())

	_, err = f.session.Commit(ctx)
	require.NoError(t, err)

	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])
}

func TestSession_FailedCalculationDiscardsPrevious(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.backend.On("Calculate", mock.Anything, f.request(1)).Return(f.calculation(1), nil).Once()
	f.backend.On("Calculate", mock.Anything, f.request(1)).Return(nil, ErrTransport).Once()

	require.NoError(t, f.session.SetQuantity(f.productID, 1))
	_, err := f.session.Calculate(ctx)
	require.NoError(t, err)

	_, err = f.session.Calculate(ctx)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Nil(t, f.session.Calculation())
	assert.Equal(t, StateFailed, f.session.State())
}

func TestSession_ResponseAfterCartChangeIsDropped(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.backend.On("Calculate", mock.Anything, f.request(1)).
		Run(func(mock.Arguments) {
			assert.NoError(t, f.session.SetQuantity(f.productID, 5))
		}).
		Return(f.calculation(1), nil)

	require.NoError(t, f.session.SetQuantity(f.productID, 1))
	calc, err := f.session.Calculate(ctx)
	assert.ErrorIs(t, err, ErrStaleResponse)
	assert.Nil(t, calc)
	assert.Nil(t, f.session.Calculation())
	assert.Equal(t, StateBuilding, f.session.State())
}

func TestSession_SecondRequestWhileInFlight(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.backend.On("Calculate", mock.Anything, f.request(1)).
		Run(func(mock.Arguments) {
			_, err := f.session.Calculate(ctx)
			assert.ErrorIs(t, err, ErrInFlight)
		}).
		Return(f.calculation(1), nil)
	f.backend.On("Purchase", mock.Anything, f.request(1), mock.Anything).
		Run(func(mock.Arguments) {
			_, err := f.session.Commit(ctx)
			assert.ErrorIs(t, err, ErrInFlight)
			assert.ErrorIs(t, f.session.SetQuantity(f.productID, 2), ErrInFlight)
		}).
		Return(&inventory.Receipt{PurchaseID: uuid.New()}, nil)

	require.NoError(t, f.session.SetQuantity(f.productID, 1))
	_, err := f.session.Calculate(ctx)
	require.NoError(t, err)
	_, err = f.session.Commit(ctx)
	require.NoError(t, err)
	f.backend.AssertNumberOfCalls(t, "Calculate", 1)
	f.backend.AssertNumberOfCalls(t, "Purchase", 1)
}

func TestSession_EditDuringCalculationDoesNotAllowSecondCall(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.backend.On("Calculate", mock.Anything, f.request(1)).
		Run(func(mock.Arguments) {
			require.NoError(t, f.session.SetQuantity(f.productID, 2))
			assert.Equal(t, StateBuilding, f.session.State())

			_, err := f.session.Calculate(ctx)
			assert.ErrorIs(t, err, ErrInFlight)
		}).
		Return(f.calculation(1), nil)
	f.backend.On("Calculate", mock.Anything, f.request(2)).Return(f.calculation(2), nil)

	require.NoError(t, f.session.SetQuantity(f.productID, 1))
	_, err := f.session.Calculate(ctx)
	assert.ErrorIs(t, err, ErrStaleResponse)
	f.backend.AssertNumberOfCalls(t, "Calculate", 1)

	calc, err := f.session.Calculate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calc.Items[0].Quantity)
	f.backend.AssertNumberOfCalls(t, "Calculate", 2)
}

func TestSession_CloseDropsInFlightCommit(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.backend.On("Calculate", mock.Anything, f.request(1)).Return(f.calculation(1), nil)
	f.backend.On("Purchase", mock.Anything, f.request(1), mock.Anything).
		Run(func(mock.Arguments) { f.session.Close() }).
		Return(&inventory.Receipt{PurchaseID: uuid.New()}, nil)

	require.NoError(t, f.session.SetQuantity(f.productID, 1))
	_, err := f.session.Calculate(ctx)
	require.NoError(t, err)

	_, err = f.session.Commit(ctx)
	assert.ErrorIs(t, err, ErrStaleResponse)
	assert.Equal(t, StateIdle, f.session.State())
	assert.ErrorIs(t, f.session.SetQuantity(f.productID, 1), ErrSessionClosed)
}

func TestSession_RefreshFailureAfterCommit(t *testing.T) {
	backend := &mockBackend{}
	warehouseID, productID := uuid.New(), uuid.New()
	lines := []inventory.InventoryLine{{WarehouseID: warehouseID, ProductID: productID, Quantity: 5}}
	req := inventory.PurchaseRequest{WarehouseID: warehouseID, Products: []inventory.PurchaseLine{{ProductID: productID, Quantity: 1}}}

	backend.On("ListInventory", mock.Anything, warehouseID).Return(lines, nil).Once()
	backend.On("ListInventory", mock.Anything, warehouseID).Return(nil, errors.New("boom")).Once()
	backend.On("Calculate", mock.Anything, req).Return(&inventory.Calculation{}, nil)
	backend.On("Purchase", mock.Anything, req, mock.Anything).Return(&inventory.Receipt{PurchaseID: uuid.New()}, nil)

	session := NewSession(backend, NewSnapshot(backend, warehouseID), logger.Discard())
	ctx := context.Background()
	require.NoError(t, session.Open(ctx))
	require.NoError(t, session.SetQuantity(productID, 1))
	_, err := session.Calculate(ctx)
	require.NoError(t, err)

	receipt, err := session.Commit(ctx)
	assert.NotNil(t, receipt)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.Equal(t, StateCommitted, session.State())
	assert.Len(t, session.Snapshot().Lines(), 1)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "calculated", StateCalculated.String())
	assert.Equal(t, "state(42)", State(42).String())
}
