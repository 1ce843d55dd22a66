package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/shell/store"
)

const (
	generationKey = "shopdesk:products:gen"
	listKeyPrefix = "shopdesk:products:list"
)

// RedisConfig configures the redis product cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// TTL bounds how long a listing is served. Default: 5 minutes.
	TTL time.Duration
}

// RedisCache caches product listings in redis. Listings are keyed by a
// generation counter so invalidation is a single INCR.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects to redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.TTL == 0 {
		cfg.TTL = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
		logger: logger.With("component", "redis_cache"),
	}, nil
}

func listKey(gen int64, opts store.ListOptions) string {
	return fmt.Sprintf("%s:%d:%d:%d:%s", listKeyPrefix, gen, opts.Limit, opts.Offset, opts.Search)
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// GetProducts returns a cached listing.
func (c *RedisCache) GetProducts(ctx context.Context, opts store.ListOptions) ([]domain.Product, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("failed to read cache generation", "error", err)
		return nil, false
	}

	data, err := c.client.Get(ctx, listKey(gen, opts)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("failed to read cached products", "error", err)
		}
		return nil, false
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		c.logger.Warn("discarding corrupt cached products", "error", err)
		return nil, false
	}
	return products, true
}

// SetProducts caches a listing under the current generation.
func (c *RedisCache) SetProducts(ctx context.Context, opts store.ListOptions, products []domain.Product) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("failed to read cache generation", "error", err)
		return
	}

	data, err := json.Marshal(products)
	if err != nil {
		c.logger.Warn("failed to encode products", "error", err)
		return
	}
	if err := c.client.Set(ctx, listKey(gen, opts), data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache products", "error", err)
	}
}

// InvalidateProducts moves to a new generation. Old listings expire by TTL.
func (c *RedisCache) InvalidateProducts(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.Warn("failed to invalidate cached products", "error", err)
	}
}

// Close closes the redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
