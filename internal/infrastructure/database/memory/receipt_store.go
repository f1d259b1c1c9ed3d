package memory

import (
	"context"
	"sync"
	"time"

	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

type receiptEntry struct {
	receipt   *inventory.Receipt
	expiresAt time.Time
}

// ReceiptStore keeps purchase receipts by idempotency key in process memory
type ReceiptStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]receiptEntry
	now     func() time.Time
}

// NewReceiptStore creates a store whose keys expire after ttl
func NewReceiptStore(ttl time.Duration) *ReceiptStore {
	return &ReceiptStore{
		ttl:     ttl,
		entries: make(map[string]receiptEntry),
		now:     time.Now,
	}
}

// Claim reserves key or returns the receipt stored under it
func (s *ReceiptStore) Claim(ctx context.Context, key string) (*inventory.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok && s.now().Before(entry.expiresAt) {
		if entry.receipt == nil {
			return nil, inventory.ErrDuplicatePurchase
		}
		return entry.receipt, nil
	}

	s.entries[key] = receiptEntry{expiresAt: s.now().Add(s.ttl)}
	return nil, nil
}

// Complete stores the receipt of a claimed key
func (s *ReceiptStore) Complete(ctx context.Context, key string, receipt *inventory.Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = receiptEntry{receipt: receipt, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Release forgets a claimed key
func (s *ReceiptStore) Release(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
