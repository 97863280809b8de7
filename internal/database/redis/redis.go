package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/config"
)

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// GetClient initializes and returns the singleton Redis client.
func GetClient(cfg *config.RedisConfig) (*redis.Client, error) {
	once.Do(func() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		})

		if err := rdb.Ping(context.Background()).Err(); err != nil {
			initErr = fmt.Errorf("cannot connect to Redis: %w", err)
			return
		}
		client = rdb
	})

	return client, initErr
}

// Close safely closes the singleton connection.
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// HealthCheck pings the Redis server.
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return client.Ping(ctx).Err()
}
