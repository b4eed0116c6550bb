package lightpivot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/lightpivot/internal/logging"
	"github.com/aretw0/lightpivot/internal/runtime"
	lphttp "github.com/aretw0/lightpivot/pkg/adapters/http"
	"github.com/aretw0/lightpivot/pkg/adapters/memory"
	"github.com/aretw0/lightpivot/pkg/config"
	"github.com/aretw0/lightpivot/pkg/datasource"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/locale"
	"github.com/aretw0/lightpivot/pkg/mdx"
	"github.com/aretw0/lightpivot/pkg/ports"
)

// Version is the library version.
const Version = "0.3.0"

// Table is a navigable pivot table. It wires the navigation engine to a data
// source stack, a store and a view, and is safe for concurrent use.
type Table struct {
	nav    *runtime.Navigator
	logger *slog.Logger
}

var _ ports.Navigator = (*Table)(nil)

type options struct {
	logger      *slog.Logger
	fetcher     ports.Fetcher
	builder     ports.QueryBuilder
	factory     ports.DataSourceFactory
	store       ports.Store
	view        ports.View
	locale      ports.Locale
	hooks       domain.LifecycleHooks
	triggers    []trigger
	skipRefresh bool
}

type trigger struct {
	name string
	fn   any
}

// Option configures a Table.
type Option func(*options)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFetcher sets the fetcher used by every data source.
// By default queries are posted to the configured dataSource.server.
func WithFetcher(f ports.Fetcher) Option {
	return func(o *options) {
		o.fetcher = f
	}
}

// WithQueryBuilder replaces the MDX query builder.
func WithQueryBuilder(b ports.QueryBuilder) Option {
	return func(o *options) {
		o.builder = b
	}
}

// WithDataSourceFactory replaces the data source constructor. It takes
// precedence over WithFetcher.
func WithDataSourceFactory(f ports.DataSourceFactory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithStore replaces the in-memory result store.
func WithStore(s ports.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithView sets the view. Without it the table is headless.
func WithView(v ports.View) Option {
	return func(o *options) {
		o.view = v
	}
}

// WithLocale sets the message catalog, overriding the configured locale.
func WithLocale(l ports.Locale) Option {
	return func(o *options) {
		o.locale = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithTrigger attaches a navigation trigger before the initial refresh.
func WithTrigger(name string, fn any) Option {
	return func(o *options) {
		o.triggers = append(o.triggers, trigger{name: name, fn: fn})
	}
}

// WithoutInitialRefresh skips the fetch New performs on construction.
func WithoutInitialRefresh() Option {
	return func(o *options) {
		o.skipRefresh = true
	}
}

// New builds a table from a loosely typed configuration record (a map decoded
// from JSON, YAML or TOML, a config.Config or nil) and fetches its root level.
// Malformed configuration falls back to the defaults.
func New(ctx context.Context, raw any, opts ...Option) (*Table, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}

	cfg, err := config.Decode(raw)
	if err != nil {
		o.logger.Warn("invalid configuration, using defaults", "err", err)
	}

	if o.locale == nil && cfg.Locale != "" {
		catalog, err := locale.New(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("failed to load locale %q: %w", cfg.Locale, err)
		}
		o.locale = catalog
	}
	if o.builder == nil {
		o.builder = mdx.New()
	}
	if o.factory == nil {
		if o.fetcher == nil {
			o.fetcher = defaultFetcher(cfg.DataSource, o.logger)
		}
		o.factory = datasource.NewFactory(o.builder, o.fetcher, datasource.WithLogger(o.logger))
	}
	if o.store == nil {
		o.store = memory.NewStore()
	}
	if o.view == nil {
		o.view = memory.NewView()
	}

	navOpts := []runtime.Option{
		runtime.WithLogger(o.logger),
		runtime.WithLifecycleHooks(o.hooks),
	}
	if o.locale != nil {
		navOpts = append(navOpts, runtime.WithLocale(o.locale))
	}
	for _, t := range o.triggers {
		navOpts = append(navOpts, runtime.WithTrigger(t.name, t.fn))
	}

	t := &Table{
		nav:    runtime.NewNavigator(cfg, o.builder, o.factory, o.store, o.view, navOpts...),
		logger: o.logger,
	}
	if !o.skipRefresh {
		t.nav.Refresh(ctx)
	}
	return t, nil
}

func defaultFetcher(cfg config.DataSource, logger *slog.Logger) ports.Fetcher {
	if cfg.Server != "" {
		return lphttp.NewClient(cfg, lphttp.WithClientLogger(logger))
	}
	return ports.FetcherFunc(func(ctx context.Context, query string) (*domain.Result, error) {
		return nil, domain.ErrNoServer
	})
}

// Refresh refetches the current level with the default filters.
func (t *Table) Refresh(ctx context.Context) domain.Outcome {
	return t.nav.Refresh(ctx)
}

// ChangeBaseQuery returns to the root level, installs query and refreshes.
func (t *Table) ChangeBaseQuery(ctx context.Context, query string) domain.Outcome {
	return t.nav.ChangeBaseQuery(ctx, query)
}

// TryDrillDown opens a child level narrowed to the member identified by filter.
// The level is kept only if its data is valid.
func (t *Table) TryDrillDown(ctx context.Context, filter string) domain.Outcome {
	return t.nav.TryDrillDown(ctx, filter)
}

// TryDrillThrough opens the record listing behind the cell identified by filters.
func (t *Table) TryDrillThrough(ctx context.Context, filters []string) domain.Outcome {
	return t.nav.TryDrillThrough(ctx, filters)
}

// CustomDrillThrough is TryDrillThrough for untyped host input. Anything but a
// sequence of strings is rejected.
func (t *Table) CustomDrillThrough(ctx context.Context, filters any) domain.Outcome {
	return t.nav.CustomDrillThrough(ctx, filters)
}

// Back closes the current level.
func (t *Table) Back() domain.Outcome {
	return t.nav.Back()
}

// SetRowCount caps the rows returned by every level. Zero removes the cap.
func (t *Table) SetRowCount(n int) {
	t.nav.SetRowCount(n)
}

// SetFilter adds a filter to the current level.
func (t *Table) SetFilter(spec string) {
	t.nav.SetFilter(spec)
}

// ClearFilters removes every filter of the current level.
func (t *Table) ClearFilters() {
	t.nav.ClearFilters()
}

// EffectiveQuery returns the query the current level would fetch.
func (t *Table) EffectiveQuery() string {
	return t.nav.EffectiveQuery()
}

// IsListing reports whether the displayed result is a listing.
func (t *Table) IsListing() bool {
	return t.nav.IsListing()
}

// SelectedRows returns the selected rows in ascending order.
func (t *Table) SelectedRows() []int {
	return t.nav.SelectedRows()
}

// RowsValues returns the raw values of one-based rows.
func (t *Table) RowsValues(rows ...int) [][]any {
	return t.nav.RowsValues(rows...)
}

// Model returns the displayed result, or nil before the first commit.
func (t *Table) Model() *domain.Result {
	return t.nav.Model()
}

// PivotProperty looks a value up in the configured pivot properties.
func (t *Table) PivotProperty(path ...string) (any, bool) {
	return t.nav.PivotProperty(path...)
}

// Snapshot returns the navigation state.
func (t *Table) Snapshot() domain.Snapshot {
	return t.nav.Snapshot()
}

// UpdateSizes asks the view to recompute its layout.
func (t *Table) UpdateSizes() {
	t.nav.UpdateSizes()
}

// AttachTrigger registers fn for the named event ("drillDown", "drillThrough",
// "back"). A later registration replaces the earlier one.
func (t *Table) AttachTrigger(name string, fn any) bool {
	return t.nav.AttachTrigger(name, fn)
}

// Level returns the current drill level.
func (t *Table) Level() int {
	return t.nav.Level()
}

// Depth returns the number of levels on the stack.
func (t *Table) Depth() int {
	return t.nav.Depth()
}

// Config returns the configuration snapshot.
func (t *Table) Config() config.Config {
	return t.nav.Config()
}
