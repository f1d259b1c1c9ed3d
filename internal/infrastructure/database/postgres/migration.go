// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/your-org/warehouse-backend/internal/domain/inventory"
	"github.com/your-org/warehouse-backend/internal/pkg/demo"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order
	models := []interface{}{
		&inventory.Warehouse{},
		&inventory.Product{},
		&inventory.InventoryLine{},
		&inventory.InventoryMovement{},
		&inventory.SalesRecord{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes and constraints
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Inventory
		"CREATE INDEX IF NOT EXISTS idx_inventory_warehouse_created ON inventory(warehouse_id, created_at, id)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_product ON inventory(product_id)",

		// Movements
		"CREATE INDEX IF NOT EXISTS idx_inventory_movements_line_created ON inventory_movements(inventory_line_id, created_at DESC)",

		// Analytics
		"CREATE INDEX IF NOT EXISTS idx_analytics_warehouse_total ON analytics(warehouse_id, total_sum DESC)",

		// Discount bounds; AutoMigrate only covers the quantity check
		`DO $$ BEGIN
			ALTER TABLE inventory ADD CONSTRAINT chk_inventory_discount CHECK (discount >= 0 AND discount <= 100);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts the demo catalog into an empty database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	var count int64
	if err := m.db.Model(&inventory.Warehouse{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count warehouses: %w", err)
	}
	if count > 0 {
		log.Printf("⏭️ Database already has %d warehouses, skipping seed", count)
		return nil
	}

	var data *demo.Dataset
	err := m.db.Transaction(func(tx *gorm.DB) error {
		var err error
		data, err = demo.Seed(context.Background(), NewInventoryRepository(tx))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}

	log.Printf("✅ Seeded %d warehouses, %d products, %d inventory lines",
		len(data.Warehouses), len(data.Products), len(data.Lines))
	return nil
}

// GetTableInfo logs the row count of every public table
func (m *Migration) GetTableInfo() error {
	var tables []string

	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	log.Println("📊 Database Tables Information:")

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count

		status := "✅"
		if count == 0 {
			status = "📭"
		}

		log.Printf("%s %-25s | %d records", status, table, count)
	}

	log.Printf("📈 Total records across %d tables: %d", len(tables), totalRecords)
	return nil
}
