// internal/infrastructure/database/redis/connection.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/warehouse-backend/internal/config"
)

const pingTimeout = 3 * time.Second

// Client is the Redis connection shared by purchase receipts and the rate
// limiter
type Client struct {
	rdb        *redis.Client
	receiptTTL time.Duration
}

// NewConnection connects to Redis and fails when the server does not answer
func NewConnection(cfg *config.Config, log *logrus.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  pingTimeout,
		WriteTimeout: pingTimeout,
		PoolTimeout:  4 * time.Second,
	})

	c := &Client{rdb: rdb, receiptTTL: cfg.Redis.ReceiptTTL}
	if err := c.Health(); err != nil {
		rdb.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"addr":        cfg.GetRedisAddr(),
		"db":          cfg.Redis.DB,
		"receipt_ttl": cfg.Redis.ReceiptTTL.String(),
	}).Info("Redis connection established")

	return c, nil
}

// Receipts returns the purchase receipt store on this connection
func (c *Client) Receipts() *PurchaseReceipts {
	return NewPurchaseReceipts(c.rdb, c.receiptTTL)
}

// GetClient returns the underlying client for the rate limiter
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health reports whether purchase receipts can reach Redis
func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("purchase receipt store unreachable: %w", err)
	}
	return nil
}
