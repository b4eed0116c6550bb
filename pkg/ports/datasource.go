package ports

import (
	"context"

	"github.com/aretw0/lightpivot/pkg/config"
	"github.com/aretw0/lightpivot/pkg/domain"
)

// DataSource owns the base query and the active filters of one drill level.
type DataSource interface {
	// Level returns the drill level the source was created for.
	Level() int

	// BaseQuery returns the unfiltered query of this level.
	BaseQuery() string

	// SetBaseQuery replaces the base query.
	SetBaseQuery(query string)

	// Filters returns a copy of the active filters, in application order.
	Filters() []string

	// SetFilter appends a filter. Filters already active are not duplicated.
	SetFilter(spec string)

	// SetFilters replaces the whole filter set.
	SetFilters(specs []string)

	// ClearFilters removes every active filter.
	ClearFilters()

	// Query returns the final query string that Fetch would execute.
	Query() string

	// Fetch executes the final query. It is single-shot per call.
	Fetch(ctx context.Context) (*domain.Result, error)
}

// SourceScope is what a DataSourceFactory receives when the engine pushes a level.
type SourceScope struct {
	Config config.DataSource
	Level  int

	// RowCount reports the current row cap of the engine; zero means no cap.
	RowCount func() int
}

// DataSourceFactory constructs the data source of a new drill level.
type DataSourceFactory func(scope SourceScope) DataSource

// Fetcher executes a final query string.
type Fetcher interface {
	Fetch(ctx context.Context, query string) (*domain.Result, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, query string) (*domain.Result, error)

// Fetch calls f(ctx, query).
func (f FetcherFunc) Fetch(ctx context.Context, query string) (*domain.Result, error) {
	return f(ctx, query)
}
