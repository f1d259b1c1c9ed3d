// internal/domain/inventory/pricing.go
package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places amounts are rounded to
const CurrencyPlaces = 2

var hundred = decimal.NewFromInt(100)

var (
	ErrDiscountPrecision = fmt.Errorf("%w: at most %d decimal places", ErrInvalidDiscount, CurrencyPlaces)
	ErrPricePrecision    = fmt.Errorf("%w: at most %d decimal places", ErrInvalidPrice, CurrencyPlaces)
)

// ValidateDiscount rejects discounts outside 0..100 percent or with more
// places than the store keeps
func ValidateDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() || discount.GreaterThan(MaxDiscount) {
		return ErrInvalidDiscount
	}
	if !fitsCurrencyPlaces(discount) {
		return ErrDiscountPrecision
	}
	return nil
}

// ValidatePrice rejects negative or sub-cent unit prices
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	if !fitsCurrencyPlaces(price) {
		return ErrPricePrecision
	}
	return nil
}

func fitsCurrencyPlaces(d decimal.Decimal) bool {
	return d.Equal(d.Round(CurrencyPlaces))
}

// DiscountedPrice applies a percentage discount to a unit price and rounds
// the result half away from zero to CurrencyPlaces.
func DiscountedPrice(price, discount decimal.Decimal) decimal.Decimal {
	return price.Mul(hundred.Sub(discount)).Div(hundred).Round(CurrencyPlaces)
}

// Quote prices a purchase request against the given inventory lines.
//
// Lines are matched by product id. The request fails as a whole when it is
// empty, lists a product twice, asks for a non-positive quantity, references
// a product missing from lines, or asks for more than is on hand. Items keep
// the order of the request; the total is the sum of the line totals.
func Quote(lines []InventoryLine, request []PurchaseLine) (*Calculation, error) {
	if len(request) == 0 {
		return nil, ErrEmptyPurchase
	}

	byProduct := make(map[uuid.UUID]*InventoryLine, len(lines))
	for i := range lines {
		byProduct[lines[i].ProductID] = &lines[i]
	}

	result := &Calculation{
		TotalSum: decimal.Zero,
		Items:    make([]PricedLine, 0, len(request)),
	}
	seen := make(map[uuid.UUID]struct{}, len(request))

	for _, p := range request {
		if _, dup := seen[p.ProductID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProduct, p.ProductID)
		}
		seen[p.ProductID] = struct{}{}

		if p.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s requested %d", ErrInvalidQuantity, p.ProductID, p.Quantity)
		}

		line, ok := byProduct[p.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, p.ProductID)
		}

		if !line.CanFulfill(p.Quantity) {
			return nil, &StockError{ProductID: p.ProductID, Available: line.Quantity, Requested: p.Quantity}
		}

		unit := DiscountedPrice(line.Price, line.Discount)
		total := unit.Mul(decimal.NewFromInt(int64(p.Quantity)))

		result.Items = append(result.Items, PricedLine{
			ProductID:         p.ProductID,
			Name:              line.ProductName(),
			Quantity:          p.Quantity,
			Price:             line.Price,
			PriceWithDiscount: unit,
			TotalPrice:        total,
		})
		result.TotalSum = result.TotalSum.Add(total)
	}

	return result, nil
}

// ProductIDs lists the product ids of a request in order
func ProductIDs(request []PurchaseLine) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(request))
	for _, p := range request {
		ids = append(ids, p.ProductID)
	}
	return ids
}
