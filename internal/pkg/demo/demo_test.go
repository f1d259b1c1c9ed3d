package demo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
	"github.com/your-org/warehouse-backend/internal/infrastructure/database/memory"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewInventoryRepository()

	data, err := Seed(ctx, repo)
	require.NoError(t, err)
	assert.Len(t, data.Warehouses, len(warehouseAddresses))
	assert.Len(t, data.Products, len(productPresets))
	assert.Len(t, data.Lines, len(warehouseAddresses)*len(productPresets))

	for _, line := range data.Lines {
		assert.GreaterOrEqual(t, line.Quantity, 10)
		assert.NoError(t, inventory.ValidateDiscount(line.Discount))
		assert.NoError(t, inventory.ValidatePrice(line.Price))
	}

	lines, err := repo.ListLines(ctx, data.Warehouses[0].ID, inventory.Page{Number: 1, Size: 100})
	require.NoError(t, err)
	assert.Len(t, lines, len(productPresets))
}
