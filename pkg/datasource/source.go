// Package datasource implements the per-level data source of the navigation stack.
//
// A Source owns a base query and an ordered filter set. Fetch derives the final
// query with a QueryBuilder and hands it to a Fetcher (HTTP client, cache, fixtures).
package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/lightpivot/internal/logging"
	"github.com/aretw0/lightpivot/pkg/config"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
)

// Source implements ports.DataSource.
// Safe for concurrent use.
type Source struct {
	mu        sync.RWMutex
	level     int
	cfg       config.DataSource
	baseQuery string
	filters   []string

	builder  ports.QueryBuilder
	fetcher  ports.Fetcher
	rowCount func() int
	logger   *slog.Logger
}

var _ ports.DataSource = (*Source)(nil)

// Option configures a Source or a Factory.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a data source for a level.
func New(scope ports.SourceScope, builder ports.QueryBuilder, fetcher ports.Fetcher, opts ...Option) *Source {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	rowCount := scope.RowCount
	if rowCount == nil {
		rowCount = func() int { return 0 }
	}

	return &Source{
		level:     scope.Level,
		cfg:       scope.Config,
		baseQuery: scope.Config.BasicMDX,
		builder:   builder,
		fetcher:   fetcher,
		rowCount:  rowCount,
		logger:    o.logger.With("level", scope.Level),
	}
}

// NewFactory returns a ports.DataSourceFactory producing Sources that share the
// given builder and fetcher.
func NewFactory(builder ports.QueryBuilder, fetcher ports.Fetcher, opts ...Option) ports.DataSourceFactory {
	return func(scope ports.SourceScope) ports.DataSource {
		return New(scope, builder, fetcher, opts...)
	}
}

// Level returns the drill level of the source.
func (s *Source) Level() int {
	return s.level
}

// Config returns the configuration the source was created with.
func (s *Source) Config() config.DataSource {
	return s.cfg
}

// BaseQuery returns the base query.
func (s *Source) BaseQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseQuery
}

// SetBaseQuery replaces the base query.
func (s *Source) SetBaseQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseQuery = query
}

// Filters returns a copy of the active filters.
func (s *Source) Filters() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.filters)
}

// SetFilter appends a filter unless it is already active.
func (s *Source) SetFilter(spec string) {
	if spec == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.filters, spec) {
		return
	}
	s.filters = append(s.filters, spec)
}

// SetFilters replaces the filter set.
func (s *Source) SetFilters(specs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = slices.Clone(specs)
}

// ClearFilters removes all filters.
func (s *Source) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = nil
}

// Query applies the filters and the row cap to the base query.
func (s *Source) Query() string {
	s.mu.RLock()
	query := s.baseQuery
	filters := slices.Clone(s.filters)
	s.mu.RUnlock()

	for _, f := range filters {
		if q := s.builder.ApplyFilter(query, f); q != "" {
			query = q
		}
	}
	if n := s.rowCount(); n > 0 {
		if q := s.builder.ApplyRowCount(query, n); q != "" {
			query = q
		}
	}
	return query
}

// Fetch executes the final query.
func (s *Source) Fetch(ctx context.Context) (*domain.Result, error) {
	query := s.Query()
	if query == "" {
		return nil, domain.ErrNoBaseQuery
	}

	s.logger.Debug("fetching", "query", query)
	result, err := s.fetcher.Fetch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch level %d: %w", s.level, err)
	}
	return result, nil
}
