// Package redis provides the Redis client and the Redis-backed nonce ledger.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/onboard/internal/config"
	"github.com/turtacn/onboard/pkg/logger"
)

// NewClient connects a standalone Redis client and verifies it with a ping.
func NewClient(cfg *config.RedisConfig, log logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info(ctx, "Redis connection established", logger.Fields{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})
	return client, nil
}
