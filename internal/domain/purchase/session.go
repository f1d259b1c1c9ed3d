// internal/domain/purchase/session.go
package purchase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

// State is the phase of a purchase session
type State int

const (
	StateIdle        State = iota // empty cart
	StateBuilding                 // cart has entries, nothing calculated
	StateCalculating              // calculation in flight
	StateCalculated               // calculation held for the current cart
	StateCommitting               // purchase in flight
	StateCommitted                // last purchase succeeded, cart reset
	StateFailed                   // last calculation or purchase failed
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateBuilding:    "building",
	StateCalculating: "calculating",
	StateCalculated:  "calculated",
	StateCommitting:  "committing",
	StateCommitted:   "committed",
	StateFailed:      "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session drives one purchase simulation against a warehouse: build a cart,
// price it remotely, then commit exactly the priced request.
//
// Every cart mutation and Close bumps a generation counter. A response that
// returns after the generation moved belongs to a cart that no longer exists
// and is dropped with ErrStaleResponse.
type Session struct {
	mu sync.Mutex

	backend  Backend
	snapshot *Snapshot
	logger   *logrus.Entry

	cart       *Cart
	state      State
	generation uint64
	closed     bool
	lastErr    error

	// set while a backend call is outstanding, whatever the state
	inFlight bool

	calculation    *inventory.Calculation
	calculatedFor  inventory.PurchaseRequest
	committable    bool
	idempotencyKey string
}

// NewSession creates a session over a warehouse snapshot
func NewSession(backend Backend, snapshot *Snapshot, logger *logrus.Logger) *Session {
	return &Session{
		backend:  backend,
		snapshot: snapshot,
		logger:   logger.WithFields(logrus.Fields{"component": "purchase", "warehouse_id": snapshot.WarehouseID()}),
		cart:     NewCart(snapshot.WarehouseID()),
		state:    StateIdle,
		closed:   true,
	}
}

// Open starts a fresh session: the cart is reset and inventory re-fetched
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	s.resetLocked()
	s.closed = false
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// Close abandons the session. The cart and any calculation are discarded
// and responses still in flight will be ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.closed = true
}

// Refresh re-fetches the warehouse inventory and drops cart entries for
// products that are no longer stocked.
func (s *Session) Refresh(ctx context.Context) error {
	lines, err := s.snapshot.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart.Restrict(lines) {
		s.invalidateLocked()
	}
	return nil
}

// SetQuantity sets the requested quantity of a product and invalidates any
// held calculation.
func (s *Session) SetQuantity(productID uuid.UUID, quantity int) error {
	return s.mutate(func(c *Cart) error { return c.SetQuantity(productID, quantity) })
}

// SetQuantityInput is SetQuantity for raw user input
func (s *Session) SetQuantityInput(productID uuid.UUID, raw string) error {
	return s.mutate(func(c *Cart) error { return c.SetQuantityInput(productID, raw) })
}

// Calculate prices the current cart. An empty cart makes no call and
// returns (nil, nil). Any previously held calculation is discarded first.
func (s *Session) Calculate(ctx context.Context) (*inventory.Calculation, error) {
	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	req := s.cart.ToPurchaseRequest()
	if len(req.Products) == 0 {
		s.mu.Unlock()
		return nil, nil
	}

	s.clearCalculationLocked()
	s.state = StateCalculating
	s.inFlight = true
	generation := s.generation
	s.mu.Unlock()

	calc, err := s.backend.Calculate(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if s.generation != generation {
		return nil, ErrStaleResponse
	}

	if err != nil {
		s.fail(err)
		s.logger.WithError(err).Warn("Calculation failed")
		return nil, err
	}

	s.calculation = calc
	s.calculatedFor = req
	s.committable = true
	s.idempotencyKey = uuid.NewString()
	s.state = StateCalculated

	s.logger.WithFields(logrus.Fields{
		"lines":     len(calc.Items),
		"total_sum": calc.TotalSum.String(),
	}).Debug("Cart calculated")

	return calc, nil
}

// Commit purchases exactly the request of the held calculation.
//
// It is never retried here. Retrying a failed commit of the same
// calculation reuses its idempotency key, so the service replays a purchase
// that had in fact been applied instead of applying it twice. On success the
// cart is reset, the calculation discarded and inventory re-fetched; if only
// the re-fetch fails the receipt is returned together with an error wrapping
// ErrRefreshFailed.
func (s *Session) Commit(ctx context.Context) (*inventory.Receipt, error) {
	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.calculation == nil {
		s.mu.Unlock()
		return nil, ErrNoCalculation
	}

	req := s.cart.ToPurchaseRequest()
	if !sameRequest(req, s.calculatedFor) {
		s.mu.Unlock()
		return nil, ErrStaleCalculation
	}
	if !s.committable {
		s.mu.Unlock()
		return nil, ErrNotCommittable
	}

	s.state = StateCommitting
	s.inFlight = true
	generation := s.generation
	key := s.idempotencyKey
	s.mu.Unlock()

	receipt, err := s.backend.Purchase(ctx, req, key)

	s.mu.Lock()
	s.inFlight = false
	if s.generation != generation {
		s.mu.Unlock()
		if err == nil {
			s.logger.WithField("purchase_id", receipt.PurchaseID).Warn("Purchase completed after session was closed")
		}
		return nil, ErrStaleResponse
	}

	if err != nil {
		s.fail(err)
		if errors.Is(err, inventory.ErrInsufficientStock) {
			s.committable = false
		}
		s.mu.Unlock()
		s.logger.WithError(err).Warn("Purchase failed")
		return nil, err
	}

	s.cart.Reset()
	s.clearCalculationLocked()
	s.generation++
	s.state = StateCommitted
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"purchase_id": receipt.PurchaseID,
		"total_sum":   receipt.TotalSum.String(),
	}).Info("Purchase committed")

	if err := s.Refresh(ctx); err != nil {
		return receipt, err
	}
	return receipt, nil
}

// State returns the current phase
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Calculation returns the held calculation, or nil when none is valid for
// the current cart. After a stock rejection it is still returned for
// display but Committable reports false.
func (s *Session) Calculation() *inventory.Calculation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calculation
}

// Committable reports whether Commit may be called
func (s *Session) Committable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calculation != nil && s.committable && s.state != StateCommitting
}

// Entries returns the cart entries with a positive quantity
func (s *Session) Entries() []CartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Entries()
}

// Quantity returns the requested quantity of a product
func (s *Session) Quantity(productID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Quantity(productID)
}

// LastError returns the error of the last failed calculation or purchase
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot returns the mirrored inventory
func (s *Session) Snapshot() *Snapshot {
	return s.snapshot
}

// Helper methods; the Locked ones expect s.mu held

func (s *Session) mutate(change func(*Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.state == StateCommitting {
		return ErrInFlight
	}

	if err := change(s.cart); err != nil {
		return err
	}
	s.invalidateLocked()
	return nil
}

func (s *Session) readyLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.inFlight {
		return ErrInFlight
	}
	return nil
}

func (s *Session) invalidateLocked() {
	s.clearCalculationLocked()
	s.generation++
	s.lastErr = nil
	if s.cart.IsEmpty() {
		s.state = StateIdle
	} else {
		s.state = StateBuilding
	}
}

func (s *Session) clearCalculationLocked() {
	s.calculation = nil
	s.calculatedFor = inventory.PurchaseRequest{}
	s.committable = false
	s.idempotencyKey = ""
}

func (s *Session) resetLocked() {
	s.cart.Reset()
	s.clearCalculationLocked()
	s.generation++
	s.lastErr = nil
	s.state = StateIdle
}

func (s *Session) fail(err error) {
	s.state = StateFailed
	s.lastErr = err
}
