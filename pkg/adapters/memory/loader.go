package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
)

// Fetcher implements ports.Fetcher with results registered per query.
// Queries without a registered result go to the fallback, if any.
type Fetcher struct {
	mu       sync.Mutex
	results  map[string]*domain.Result
	fallback ports.Fetcher
	queries  []string
}

var _ ports.Fetcher = (*Fetcher)(nil)

// NewFetcher creates a Fetcher with the provided results, keyed by final query.
func NewFetcher(results map[string]*domain.Result) *Fetcher {
	f := &Fetcher{
		results: make(map[string]*domain.Result, len(results)),
	}
	for q, r := range results {
		f.results[q] = r
	}
	return f
}

// WithFallback sets the fetcher consulted for unregistered queries.
func (f *Fetcher) WithFallback(next ports.Fetcher) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = next
	return f
}

// Add registers the result of a query.
func (f *Fetcher) Add(query string, result *domain.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[query] = result
}

// Fetch returns the registered result for query.
func (f *Fetcher) Fetch(ctx context.Context, query string) (*domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.queries = append(f.queries, query)
	result, ok := f.results[query]
	fallback := f.fallback
	f.mu.Unlock()

	if ok {
		return result, nil
	}
	if fallback != nil {
		return fallback.Fetch(ctx, query)
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrFixtureNotFound, query)
}

// Queries returns the queries fetched so far, in order.
func (f *Fetcher) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}
