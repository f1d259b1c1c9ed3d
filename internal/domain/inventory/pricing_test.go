package inventory

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func stockedLine(name string, quantity int, price, discount string) InventoryLine {
	productID := uuid.New()
	return InventoryLine{
		ID:          uuid.New(),
		WarehouseID: uuid.New(),
		ProductID:   productID,
		Quantity:    quantity,
		Price:       dec(price),
		Discount:    dec(discount),
		Product:     &Product{ID: productID, Name: name},
	}
}

func TestDiscountedPrice(t *testing.T) {
	tests := []struct {
		price    string
		discount string
		want     string
	}{
		{"100", "10", "90"},
		{"100", "0", "100"},
		{"100", "100", "0"},
		{"19.99", "15", "16.99"}, // 16.9915
		{"10.01", "50", "5.01"},  // 5.005 rounds away from zero
		{"0.05", "50", "0.03"},   // 0.025
		{"33.33", "33.33", "22.22"},
	}

	for _, tt := range tests {
		t.Run(tt.price+"@"+tt.discount, func(t *testing.T) {
			got := DiscountedPrice(dec(tt.price), dec(tt.discount))
			assert.True(t, dec(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestQuote_SingleLine(t *testing.T) {
	line := stockedLine("Widget", 10, "100", "10")

	calc, err := Quote([]InventoryLine{line}, []PurchaseLine{{ProductID: line.ProductID, Quantity: 3}})
	require.NoError(t, err)
	require.Len(t, calc.Items, 1)

	item := calc.Items[0]
	assert.Equal(t, line.ProductID, item.ProductID)
	assert.Equal(t, "Widget", item.Name)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, dec("100").Equal(item.Price))
	assert.True(t, dec("90").Equal(item.PriceWithDiscount))
	assert.True(t, dec("270").Equal(item.TotalPrice))
	assert.True(t, item.TotalPrice.Equal(calc.TotalSum))
}

func TestQuote_MultipleLinesKeepRequestOrder(t *testing.T) {
	a := stockedLine("A", 5, "19.99", "15")
	b := stockedLine("B", 2, "10", "0")

	calc, err := Quote([]InventoryLine{a, b}, []PurchaseLine{
		{ProductID: b.ProductID, Quantity: 2},
		{ProductID: a.ProductID, Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, calc.Items, 2)

	assert.Equal(t, b.ProductID, calc.Items[0].ProductID)
	assert.Equal(t, a.ProductID, calc.Items[1].ProductID)
	assert.True(t, dec("20").Equal(calc.Items[0].TotalPrice))
	assert.True(t, dec("50.97").Equal(calc.Items[1].TotalPrice))
	assert.True(t, dec("70.97").Equal(calc.TotalSum))
}

func TestQuote_Rejections(t *testing.T) {
	line := stockedLine("Widget", 10, "100", "10")

	tests := []struct {
		name    string
		request []PurchaseLine
		want    error
	}{
		{"empty", nil, ErrEmptyPurchase},
		{"zero quantity", []PurchaseLine{{ProductID: line.ProductID, Quantity: 0}}, ErrInvalidQuantity},
		{"negative quantity", []PurchaseLine{{ProductID: line.ProductID, Quantity: -1}}, ErrInvalidQuantity},
		{"unknown product", []PurchaseLine{{ProductID: uuid.New(), Quantity: 1}}, ErrUnknownProduct},
		{"duplicate product", []PurchaseLine{
			{ProductID: line.ProductID, Quantity: 1},
			{ProductID: line.ProductID, Quantity: 2},
		}, ErrDuplicateProduct},
		{"over stock", []PurchaseLine{{ProductID: line.ProductID, Quantity: 11}}, ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := Quote([]InventoryLine{line}, tt.request)
			assert.Nil(t, calc)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestQuote_StockErrorIsNotValidation(t *testing.T) {
	line := stockedLine("Widget", 10, "100", "10")

	_, err := Quote([]InventoryLine{line}, []PurchaseLine{{ProductID: line.ProductID, Quantity: 11}})

	var stockErr *StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 10, stockErr.Available)
	assert.Equal(t, 11, stockErr.Requested)
	assert.False(t, errors.Is(err, ErrValidation))
}

func TestValidateDiscount(t *testing.T) {
	assert.NoError(t, ValidateDiscount(dec("0")))
	assert.NoError(t, ValidateDiscount(dec("100")))
	assert.NoError(t, ValidateDiscount(dec("12.5")))
	assert.ErrorIs(t, ValidateDiscount(dec("150")), ErrInvalidDiscount)
	assert.ErrorIs(t, ValidateDiscount(dec("-1")), ErrValidation)

	assert.NoError(t, ValidateDiscount(dec("12.34")))
	assert.ErrorIs(t, ValidateDiscount(dec("12.345")), ErrDiscountPrecision)
	assert.ErrorIs(t, ValidateDiscount(dec("12.345")), ErrInvalidDiscount)
}

func TestValidatePrice(t *testing.T) {
	assert.NoError(t, ValidatePrice(dec("0")))
	assert.NoError(t, ValidatePrice(dec("19.99")))
	assert.NoError(t, ValidatePrice(dec("5.10")))
	assert.ErrorIs(t, ValidatePrice(dec("-0.01")), ErrInvalidPrice)
	assert.ErrorIs(t, ValidatePrice(dec("19.999")), ErrPricePrecision)
	assert.ErrorIs(t, ValidatePrice(dec("19.999")), ErrValidation)
}
