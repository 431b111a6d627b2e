package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/careerdesk/config"
	"github.com/mohammad-safakhou/careerdesk/internal/queue/streams"
	"github.com/redis/go-redis/v9"
)

// InitSchemaRegistry returns a registry loaded with the fault event schemas.
func InitSchemaRegistry() (*streams.SchemaRegistry, error) {
	reg := streams.NewSchemaRegistry()
	if err := streams.RegisterBaseSchemas(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// OpenRedis connects and pings the configured Redis.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
