package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/lightpivot"
	lphttp "github.com/aretw0/lightpivot/pkg/adapters/http"
	"github.com/aretw0/lightpivot/pkg/adapters/memory"
	"github.com/aretw0/lightpivot/pkg/adapters/redis"
	"github.com/aretw0/lightpivot/pkg/config"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
)

// cacheLockWait bounds how long a cache miss waits for another process fetching
// the same query.
const cacheLockWait = 5 * time.Second

// NewTable builds a table with the CLI conventions: fixtures or the configured
// query server, optionally behind a Redis cache. The returned func releases the
// cache connection.
func NewTable(ctx context.Context, cfg config.Config, opts Options, logger *slog.Logger, extra ...lightpivot.Option) (*lightpivot.Table, func() error, error) {
	fetcher, closer, err := newFetcher(cfg, opts, logger)
	if err != nil {
		return nil, nil, err
	}

	tableOpts := []lightpivot.Option{
		lightpivot.WithLogger(logger),
		lightpivot.WithFetcher(fetcher),
	}
	tableOpts = append(tableOpts, extra...)

	table, err := lightpivot.New(ctx, cfg, tableOpts...)
	if err != nil {
		_ = closer()
		return nil, nil, fmt.Errorf("error initializing table: %w", err)
	}
	return table, closer, nil
}

func newFetcher(cfg config.Config, opts Options, logger *slog.Logger) (ports.Fetcher, func() error, error) {
	noop := func() error { return nil }

	var fetcher ports.Fetcher
	switch {
	case opts.Fixtures != "":
		results, err := loadFixtures(opts.Fixtures)
		if err != nil {
			return nil, nil, err
		}
		fetcher = memory.NewFetcher(results)
	case cfg.DataSource.Server != "":
		fetcher = lphttp.NewClient(cfg.DataSource, lphttp.WithClientLogger(logger))
	default:
		return nil, nil, fmt.Errorf("%w: set --server, dataSource.server or --fixtures", domain.ErrNoServer)
	}

	if opts.RedisURL == "" {
		return fetcher, noop, nil
	}
	client, err := redisClient(opts.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	cache := redis.NewFromClient(client, fetcher,
		redis.WithTTL(opts.CacheTTL),
		redis.WithLogger(logger),
		redis.WithLock(cacheLockWait),
	)
	logger.Debug("result cache enabled", "redis", opts.RedisURL, "ttl", opts.CacheTTL)
	return cache, cache.Close, nil
}

// redisClient accepts either a redis:// URL or a bare host:port address.
func redisClient(raw string) (backend.UniversalClient, error) {
	if !strings.Contains(raw, "://") {
		return backend.NewClient(&backend.Options{Addr: raw}), nil
	}
	opts, err := backend.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return backend.NewClient(opts), nil
}

// loadFixtures reads a JSON document mapping final queries to results.
func loadFixtures(path string) (map[string]*domain.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures %s: %w", path, err)
	}
	var results map[string]*domain.Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures %s: %w", path, err)
	}
	if len(results) == 0 {
		return nil, errors.New("fixtures file has no results")
	}
	return results, nil
}
