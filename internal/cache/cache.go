// Package cache keeps the latest digest in Redis so the API can serve
// it without touching PostgreSQL on every request. The cache is a pure
// read-through optimization: a miss or a Redis outage falls back to the
// database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	db "github.com/marketbrief/marketbrief/internal/storage"
)

const latestDigestKey = "marketbrief:digest:latest"

// ErrMiss indicates the cache holds no digest.
var ErrMiss = errors.New("cache miss")

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// New connects to Redis. A parse failure falls back to treating the URL
// as a plain address.
func New(redisURL string, ttl time.Duration, logger *zerolog.Logger) (*Cache, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)

	return &Cache{client: client, ttl: ttl, logger: logger}, nil
}

// SetLatest stores the freshly built digest. Failures are logged, not
// propagated: the database remains the source of truth.
func (c *Cache) SetLatest(ctx context.Context, digest *db.StoredDigest) {
	payload, err := json.Marshal(digest)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to marshal digest for cache")

		return
	}

	if err := c.client.Set(ctx, latestDigestKey, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to cache latest digest")
	}
}

// GetLatest returns the cached digest or ErrMiss.
func (c *Cache) GetLatest(ctx context.Context) (*db.StoredDigest, error) {
	payload, err := c.client.Get(ctx, latestDigestKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}

		return nil, fmt.Errorf("get cached digest: %w", err)
	}

	var digest db.StoredDigest
	if err := json.Unmarshal(payload, &digest); err != nil {
		return nil, fmt.Errorf("unmarshal cached digest: %w", err)
	}

	return &digest, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
