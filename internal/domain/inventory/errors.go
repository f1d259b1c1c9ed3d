package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")

	ErrInvalidQuantity  = fmt.Errorf("%w: quantity must be a non-negative integer", ErrValidation)
	ErrInvalidDiscount  = fmt.Errorf("%w: discount must be between 0 and 100", ErrValidation)
	ErrInvalidPrice     = fmt.Errorf("%w: price must be non-negative", ErrValidation)
	ErrEmptyPurchase    = fmt.Errorf("%w: purchase must contain at least one product", ErrValidation)
	ErrDuplicateProduct = fmt.Errorf("%w: product listed more than once", ErrValidation)
	ErrUnknownProduct   = fmt.Errorf("%w: product is not stocked in this warehouse", ErrValidation)
	ErrEmptyPatch       = fmt.Errorf("%w: nothing to update", ErrValidation)
	ErrMissingName      = fmt.Errorf("%w: name is required", ErrValidation)
	ErrMissingAddress   = fmt.Errorf("%w: address is required", ErrValidation)
	ErrMissingWarehouse = fmt.Errorf("%w: warehouse_id is required", ErrValidation)
	ErrMissingProduct   = fmt.Errorf("%w: product_id is required", ErrValidation)

	ErrWarehouseNotFound = fmt.Errorf("warehouse %w", ErrNotFound)
	ErrProductNotFound   = fmt.Errorf("product %w", ErrNotFound)
	ErrLineNotFound      = fmt.Errorf("inventory line %w", ErrNotFound)

	ErrInsufficientStock = errors.New("insufficient stock")
	ErrLineExists        = errors.New("inventory line already exists")
	ErrDuplicatePurchase = errors.New("purchase with this idempotency key is already in progress")
)

// StockError reports a line whose on-hand quantity cannot cover a request
type StockError struct {
	ProductID uuid.UUID
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// ValidateQuantity rejects negative on-hand quantities
func ValidateQuantity(quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}
