// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
	"github.com/your-org/warehouse-backend/internal/infrastructure/database/memory"
	"github.com/your-org/warehouse-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/warehouse-backend/internal/infrastructure/database/redis"
	"github.com/your-org/warehouse-backend/internal/interfaces/http"
	"github.com/your-org/warehouse-backend/internal/pkg/demo"
	"github.com/your-org/warehouse-backend/internal/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"version": cfg.App.Version,
		"env":     cfg.App.Environment,
	}).Infof("Starting %s", cfg.App.Name)

	checks := map[string]http.HealthCheck{}

	// Storage
	var repo inventory.Repository
	switch cfg.Database.Driver {
	case config.StorageDriverMemory:
		repo = memory.NewInventoryRepository()
		if cfg.Database.SeedDemoData {
			data, err := demo.Seed(context.Background(), repo)
			if err != nil {
				log.Fatalf("Failed to seed demo data: %v", err)
			}
			log.WithField("warehouses", len(data.Warehouses)).Info("Seeded in-memory demo data")
		}

	default:
		db, err := postgres.NewConnection(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Health(); err != nil {
			log.Fatalf("Database health check failed: %v", err)
		}
		checks["database"] = db.Health

		migration := postgres.NewMigration(db.GetDB())
		if err := migration.RunAutoMigrations(); err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
		if err := migration.CreateIndexes(); err != nil {
			log.Warnf("Index creation failed: %v", err)
		}
		if cfg.Database.SeedDemoData {
			if err := migration.SeedInitialData(); err != nil {
				log.Warnf("Data seeding failed: %v", err)
			}
		}
		if cfg.IsDevelopment() {
			if err := migration.GetTableInfo(); err != nil {
				log.Warnf("Failed to read table info: %v", err)
			}
		}

		repo = postgres.NewInventoryRepository(db.GetDB())
	}

	// Idempotency receipts live in Redis when it is available so that they
	// survive restarts and are shared between instances
	var (
		receipts    inventory.ReceiptStore = memory.NewReceiptStore(cfg.Redis.ReceiptTTL)
		redisClient *goredis.Client
	)
	if cfg.Redis.Enabled {
		client, err := redis.NewConnection(cfg, log)
		if err != nil {
			log.Warnf("Redis unavailable, keeping purchase receipts in memory: %v", err)
		} else {
			defer client.Close()
			redisClient = client.GetClient()
			receipts = client.Receipts()
			checks["redis"] = client.Health
		}
	}

	service := inventory.NewService(repo, receipts, cfg, log)

	log.Info("All systems operational")

	// Create and start HTTP server
	server := http.NewServer(cfg, service, log, redisClient, checks)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Errorf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	log.Info("Server shutdown completed")
}
