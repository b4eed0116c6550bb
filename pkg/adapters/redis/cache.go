// Package redis provides a Redis-backed result cache for the pivot engine.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/lightpivot/internal/logging"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "lightpivot:cache:"

// farFuture is the index score of entries without expiration (2100-01-01).
const farFuture = 4102444800

// Cache implements ports.Fetcher by decorating another Fetcher with a Redis
// result cache keyed by the final query.
//
// Results carrying a server error are never cached. Redis failures are logged and
// the request falls through to the wrapped fetcher.
type Cache struct {
	client backend.UniversalClient
	next   ports.Fetcher
	prefix string
	ttl    time.Duration
	logger *slog.Logger

	locker   *Locker
	lockWait time.Duration
}

var _ ports.Fetcher = (*Cache)(nil)

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the expiration of cached results. Zero keeps them until invalidated.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithLock makes concurrent misses of the same query, across processes, wait for
// a single fetch instead of all hitting the query server.
func WithLock(wait time.Duration) Option {
	return func(c *Cache) {
		c.locker = NewLocker(c.client, c.prefix)
		c.lockWait = wait
	}
}

// New creates a cache connected to a Redis server.
func New(address, password string, db int, next ports.Fetcher, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, next, opts...)
}

// NewFromClient creates a cache from an existing client.
func NewFromClient(client backend.UniversalClient, next ports.Fetcher, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		next:   next,
		prefix: DefaultPrefix,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.locker != nil {
		c.locker.prefix = c.prefix
	}
	return c
}

func (c *Cache) key(query string) string {
	sum := sha256.Sum256([]byte(query))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *Cache) indexKey() string {
	return c.prefix + "index"
}

// Fetch returns the cached result for query, fetching and caching it on a miss.
func (c *Cache) Fetch(ctx context.Context, query string) (*domain.Result, error) {
	key := c.key(query)

	result, err := c.Get(ctx, query)
	if err == nil {
		c.logger.Debug("cache hit", "query", query)
		return result, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		c.logger.Warn("cache read failed", "query", query, "err", err)
		return c.fetchAndStore(ctx, query)
	}

	if c.locker == nil {
		return c.fetchAndStore(ctx, query)
	}

	lockCtx, cancel := context.WithTimeout(ctx, c.lockWait)
	unlock, err := c.locker.Lock(lockCtx, key, c.lockWait)
	cancel()
	if err != nil {
		c.logger.Warn("cache lock not acquired", "query", query, "err", err)
		return c.fetchAndStore(ctx, query)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("cache unlock failed", "query", query, "err", err)
		}
	}()

	// another holder may have filled the entry while we waited
	if result, err := c.Get(ctx, query); err == nil {
		return result, nil
	}
	return c.fetchAndStore(ctx, query)
}

func (c *Cache) fetchAndStore(ctx context.Context, query string) (*domain.Result, error) {
	result, err := c.next.Fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Error != "" {
		return result, nil
	}
	if err := c.Set(ctx, query, result); err != nil {
		c.logger.Warn("cache write failed", "query", query, "err", err)
	}
	return result, nil
}

// Get reads a cached result. It returns domain.ErrCacheMiss when there is none.
func (c *Cache) Get(ctx context.Context, query string) (*domain.Result, error) {
	val, err := c.client.Get(ctx, c.key(query)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var result domain.Result
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// Set stores a result and records its key in the index.
func (c *Cache) Set(ctx context.Context, query string, result *domain.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	key := c.key(query)
	score := float64(farFuture)
	if c.ttl > 0 {
		score = float64(time.Now().Add(c.ttl).Unix())
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.ZAdd(ctx, c.indexKey(), backend.Z{Score: score, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Keys returns the keys of the live entries, pruning expired ones from the index.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := c.client.ZRemRangeByScore(ctx, c.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired entries: %w", err)
	}
	keys, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return keys, nil
}

// Invalidate drops every cached result.
func (c *Cache) Invalidate(ctx context.Context) error {
	keys, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	pipe := c.client.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, c.indexKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
