// internal/infrastructure/database/redis/purchase_receipts.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

const (
	receiptKeyPrefix = "purchase:receipt:"
	pendingMarker    = "pending"
)

// PurchaseReceipts stores purchase receipts by idempotency key. A claimed
// key holds a pending marker until the purchase completes or is released.
type PurchaseReceipts struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPurchaseReceipts creates a receipt store whose keys expire after ttl
func NewPurchaseReceipts(client *redis.Client, ttl time.Duration) *PurchaseReceipts {
	return &PurchaseReceipts{client: client, ttl: ttl}
}

// Claim reserves key or returns the receipt already stored under it
func (p *PurchaseReceipts) Claim(ctx context.Context, key string) (*inventory.Receipt, error) {
	redisKey := receiptKeyPrefix + key

	// A stored value can expire between SETNX and GET; one more round
	// settles it.
	for attempt := 0; attempt < 2; attempt++ {
		claimed, err := p.client.SetNX(ctx, redisKey, pendingMarker, p.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
		}
		if claimed {
			return nil, nil
		}

		val, err := p.client.Get(ctx, redisKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read idempotency key: %w", err)
		}
		if val == pendingMarker {
			return nil, inventory.ErrDuplicatePurchase
		}

		var receipt inventory.Receipt
		if err := json.Unmarshal([]byte(val), &receipt); err != nil {
			return nil, fmt.Errorf("failed to decode stored receipt: %w", err)
		}
		return &receipt, nil
	}

	return nil, inventory.ErrDuplicatePurchase
}

// Complete stores the receipt of a claimed key
func (p *PurchaseReceipts) Complete(ctx context.Context, key string, receipt *inventory.Receipt) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}
	return p.client.Set(ctx, receiptKeyPrefix+key, data, p.ttl).Err()
}

// Release frees a claimed key
func (p *PurchaseReceipts) Release(ctx context.Context, key string) error {
	return p.client.Del(ctx, receiptKeyPrefix+key).Err()
}
