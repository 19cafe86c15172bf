package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/qualis-hq/backoffice/internal/config"
)

// NewRedis connects to the token cache. A nil client with a nil error means
// REDIS_URL is empty and the cache is disabled; auth then validates every
// token against MariaDB.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}

	return client, nil
}
