// internal/pkg/demo/demo.go
package demo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
)

// Dataset is what Seed created
type Dataset struct {
	Warehouses []inventory.Warehouse
	Products   []inventory.Product
	Lines      []inventory.InventoryLine
}

type productPreset struct {
	name            string
	description     string
	weight          float64
	barcode         string
	characteristics map[string]string
}

var warehouseAddresses = []string{
	"10 Pushkin Street, Moscow",
	"25 Nevsky Prospect, Saint Petersburg",
	"5 Lenin Street, Novosibirsk",
}

var productPresets = []productPreset{
	{"Smart Speaker", "Voice assistant with rich sound.", 0.5, "8934758934", map[string]string{"color": "black", "generation": "5"}},
	{"ProPixel X1 Phone", "Flagship camera and on-device AI.", 0.2, "1230981230", map[string]string{"storage": "256GB", "color": "onyx"}},
	{"UltraView 4K Monitor", "32 inch borderless display.", 5.4, "5675675676", map[string]string{"resolution": "3840x2160", "refresh_rate": "144Hz"}},
	{"CyberDeck Keyboard", "Backlit mechanical keyboard.", 1.1, "9988776655", map[string]string{"switches": "blue", "layout": "ANSI"}},
	{"Quantum Mouse", "Wireless ergonomic mouse.", 0.15, "3344556677", map[string]string{"dpi": "25000", "buttons": "7"}},
}

// Seed fills repo with a small fixed catalog: every warehouse stocks every
// product. Quantities, prices and discounts vary per line but are the same
// on every run.
func Seed(ctx context.Context, repo inventory.Repository) (*Dataset, error) {
	data := &Dataset{}

	for _, address := range warehouseAddresses {
		w := inventory.Warehouse{Address: address}
		if err := repo.CreateWarehouse(ctx, &w); err != nil {
			return nil, fmt.Errorf("failed to seed warehouse %q: %w", address, err)
		}
		data.Warehouses = append(data.Warehouses, w)
	}

	for _, preset := range productPresets {
		characteristics, err := json.Marshal(preset.characteristics)
		if err != nil {
			return nil, err
		}
		p := inventory.Product{
			Name:            preset.name,
			Description:     preset.description,
			Characteristics: characteristics,
			Weight:          preset.weight,
			Barcode:         preset.barcode,
		}
		if err := repo.CreateProduct(ctx, &p); err != nil {
			return nil, fmt.Errorf("failed to seed product %q: %w", preset.name, err)
		}
		data.Products = append(data.Products, p)
	}

	for wi, w := range data.Warehouses {
		for pi, p := range data.Products {
			n := wi*len(data.Products) + pi
			line := inventory.InventoryLine{
				WarehouseID: w.ID,
				ProductID:   p.ID,
				Quantity:    10 + (n*37)%90,
				Price:       decimal.NewFromInt(int64(50 + (n*173)%950)).Add(decimal.New(99, -2)),
				Discount:    decimal.NewFromInt(int64((n * 7) % 20)),
			}
			if err := repo.CreateLine(ctx, &line); err != nil {
				return nil, fmt.Errorf("failed to seed inventory: %w", err)
			}
			data.Lines = append(data.Lines, line)
		}
	}

	return data, nil
}
