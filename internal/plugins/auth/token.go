package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBytes is the entropy of auth and reset tokens. 16 bytes encode to 24
// base64 characters.
const tokenBytes = 16

// newToken reads tokenBytes from r and returns them base64-encoded.
func newToken(r io.Reader) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// tokenKeyPrefix is the Redis key prefix for cached token lookups.
const tokenKeyPrefix = "authtoken:"

// TokenCache remembers which principal an auth token belongs to so that
// authenticated requests skip the auth_tokens lookup. A miss is (nil, nil).
type TokenCache interface {
	Get(ctx context.Context, token string) (*Principal, error)
	Set(ctx context.Context, token string, p *Principal) error
	Delete(ctx context.Context, token string) error
}

// redisTokenCache implements TokenCache with go-redis.
type redisTokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTokenCache returns a TokenCache backed by client. Entries expire
// after ttl so a token deleted out of band stops working within that window.
func NewRedisTokenCache(client *redis.Client, ttl time.Duration) TokenCache {
	return &redisTokenCache{client: client, ttl: ttl}
}

func (c *redisTokenCache) Get(ctx context.Context, token string) (*Principal, error) {
	data, err := c.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token from Redis: %w", err)
	}

	var p Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling cached principal: %w", err)
	}
	return &p, nil
}

func (c *redisTokenCache) Set(ctx context.Context, token string, p *Principal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling principal: %w", err)
	}
	if err := c.client.Set(ctx, tokenKeyPrefix+token, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("storing token in Redis: %w", err)
	}
	return nil
}

func (c *redisTokenCache) Delete(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, tokenKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("deleting token from Redis: %w", err)
	}
	return nil
}

// noopTokenCache is used when Redis is not configured.
type noopTokenCache struct{}

func (noopTokenCache) Get(context.Context, string) (*Principal, error) { return nil, nil }
func (noopTokenCache) Set(context.Context, string, *Principal) error   { return nil }
func (noopTokenCache) Delete(context.Context, string) error            { return nil }
