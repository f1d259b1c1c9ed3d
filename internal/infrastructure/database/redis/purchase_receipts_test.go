package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

// Runs against a live server when REDIS_TEST_ADDR is set
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { client.Close() })
	return client
}

func TestPurchaseReceipts(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	store := NewPurchaseReceipts(client, time.Minute)
	key := uuid.NewString()
	t.Cleanup(func() { store.Release(ctx, key) })

	replay, err := store.Claim(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, replay)

	_, err = store.Claim(ctx, key)
	assert.ErrorIs(t, err, inventory.ErrDuplicatePurchase)

	receipt := &inventory.Receipt{
		PurchaseID: uuid.New(),
		Status:     inventory.PurchaseStatusSuccess,
		TotalSum:   decimal.RequireFromString("270"),
	}
	require.NoError(t, store.Complete(ctx, key, receipt))

	replay, err = store.Claim(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, receipt.PurchaseID, replay.PurchaseID)
	assert.True(t, receipt.TotalSum.Equal(replay.TotalSum))

	require.NoError(t, store.Release(ctx, key))
	replay, err = store.Claim(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, replay)
}
