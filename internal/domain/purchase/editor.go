// internal/domain/purchase/editor.go
package purchase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

// EditMode selects how a combined quantity and discount edit is sent
type EditMode int

const (
	// EditModeAtomic sends both fields in one request; they apply together
	// or not at all.
	EditModeAtomic EditMode = iota
	// EditModeTwoCall sends quantity then discount as separate requests and
	// reports a PartialUpdateError when only the first lands.
	EditModeTwoCall
)

// LineEdit is a change to one inventory line; nil fields are left as is
type LineEdit struct {
	ProductID uuid.UUID
	Quantity  *int
	Discount  *decimal.Decimal
}

// Editor updates inventory lines of one warehouse outside of a purchase.
// Values are validated before any call and rejected, never clamped. After
// every call that may have changed a line the full snapshot is re-fetched.
type Editor struct {
	backend  LineBackend
	snapshot *Snapshot
	mode     EditMode
	logger   *logrus.Entry
}

// NewEditor creates an editor over a warehouse snapshot
func NewEditor(backend LineBackend, snapshot *Snapshot, mode EditMode, logger *logrus.Logger) *Editor {
	return &Editor{
		backend:  backend,
		snapshot: snapshot,
		mode:     mode,
		logger:   logger.WithFields(logrus.Fields{"component": "editor", "warehouse_id": snapshot.WarehouseID()}),
	}
}

// UpdateQuantity sets the on-hand quantity of a line
func (e *Editor) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) (*inventory.InventoryLine, error) {
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	line, err := e.backend.UpdateQuantity(ctx, e.snapshot.WarehouseID(), productID, quantity)
	if err != nil {
		return nil, err
	}
	return line, e.refresh(ctx)
}

// UpdateDiscount sets the discount percent of a line
func (e *Editor) UpdateDiscount(ctx context.Context, productID uuid.UUID, discount decimal.Decimal) (*inventory.InventoryLine, error) {
	if err := inventory.ValidateDiscount(discount); err != nil {
		return nil, err
	}

	line, err := e.backend.UpdateDiscount(ctx, e.snapshot.WarehouseID(), productID, discount)
	if err != nil {
		return nil, err
	}
	return line, e.refresh(ctx)
}

// Apply sends an edit of one or both fields according to the editor's mode
func (e *Editor) Apply(ctx context.Context, edit LineEdit) (*inventory.InventoryLine, error) {
	if edit.Quantity == nil && edit.Discount == nil {
		return nil, inventory.ErrEmptyPatch
	}
	if edit.Quantity != nil {
		if err := inventory.ValidateQuantity(*edit.Quantity); err != nil {
			return nil, err
		}
	}
	if edit.Discount != nil {
		if err := inventory.ValidateDiscount(*edit.Discount); err != nil {
			return nil, err
		}
	}

	if e.mode == EditModeAtomic {
		line, err := e.backend.UpdateLine(ctx, inventory.LineUpdateRequest{
			WarehouseID: e.snapshot.WarehouseID(),
			ProductID:   edit.ProductID,
			Quantity:    edit.Quantity,
			Discount:    edit.Discount,
		})
		if err != nil {
			return nil, err
		}
		return line, e.refresh(ctx)
	}

	return e.applyTwoCall(ctx, edit)
}

func (e *Editor) applyTwoCall(ctx context.Context, edit LineEdit) (*inventory.InventoryLine, error) {
	var (
		line    *inventory.InventoryLine
		applied []string
		err     error
	)

	if edit.Quantity != nil {
		line, err = e.backend.UpdateQuantity(ctx, e.snapshot.WarehouseID(), edit.ProductID, *edit.Quantity)
		if err != nil {
			return nil, err
		}
		applied = append(applied, "quantity")
	}

	if edit.Discount != nil {
		line, err = e.backend.UpdateDiscount(ctx, e.snapshot.WarehouseID(), edit.ProductID, *edit.Discount)
		if err != nil {
			if len(applied) == 0 {
				return nil, err
			}
			partial := &PartialUpdateError{Applied: applied, Failed: "discount", Err: err}
			e.logger.WithError(err).WithField("product_id", edit.ProductID).Warn("Inventory line partially updated")
			if refreshErr := e.refresh(ctx); refreshErr != nil {
				e.logger.WithError(refreshErr).Warn("Refresh after partial update failed")
			}
			return nil, partial
		}
	}

	return line, e.refresh(ctx)
}

func (e *Editor) refresh(ctx context.Context) error {
	if _, err := e.snapshot.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return nil
}
