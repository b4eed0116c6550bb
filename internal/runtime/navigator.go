package runtime

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"go.uber.org/atomic"

	"github.com/aretw0/lightpivot/internal/logging"
	"github.com/aretw0/lightpivot/pkg/config"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
)

// msgInvalidData is the locale code of the message shown for invalid refresh data.
const msgInvalidData = 2

const fallbackInvalidData = "Invalid data"

// Navigator is the drill navigation state machine.
//
// It owns the data source stack and keeps the store and the view at the same
// depth. Drill steps are speculative: the candidate level is pushed, fetched and
// validated, then either committed across store and view or rolled back.
//
// The internal mutex is never held while a fetch is in flight. Store and View
// methods are called with the mutex held and must not call back into the
// Navigator.
type Navigator struct {
	mu      sync.Mutex
	stack   []ports.DataSource
	epochs  []*atomic.Uint64
	pending *pendingStep

	cfg      config.Config
	builder  ports.QueryBuilder
	factory  ports.DataSourceFactory
	store    ports.Store
	view     ports.View
	locale   ports.Locale
	hooks    domain.LifecycleHooks
	triggers *Triggers
	logger   *slog.Logger

	rowCount *atomic.Int64

	pendingTriggers []namedTrigger
}

var _ ports.Navigator = (*Navigator)(nil)

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// WithLocale configures the message catalog used for user-facing messages.
func WithLocale(locale ports.Locale) Option {
	return func(n *Navigator) {
		n.locale = locale
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(n *Navigator) {
		n.hooks = hooks
	}
}

// WithTrigger attaches a host callback at construction time.
// Invalid callbacks are logged and ignored, as with AttachTrigger.
func WithTrigger(name string, fn any) Option {
	return func(n *Navigator) {
		n.pendingTriggers = append(n.pendingTriggers, namedTrigger{name: name, fn: fn})
	}
}

type namedTrigger struct {
	name string
	fn   any
}

// NewNavigator creates a navigator with a root level built from cfg.DataSource.
// The store and the view must be fresh (depth 1).
func NewNavigator(cfg config.Config, builder ports.QueryBuilder, factory ports.DataSourceFactory, store ports.Store, view ports.View, opts ...Option) *Navigator {
	n := &Navigator{
		cfg:      cfg,
		builder:  builder,
		factory:  factory,
		store:    store,
		view:     view,
		logger:   logging.NewNop(),
		rowCount: atomic.NewInt64(int64(max(cfg.RowCount, 0))),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = logging.NewNop()
	}

	n.triggers = NewTriggers(n.logger)
	for _, t := range n.pendingTriggers {
		n.triggers.Attach(t.name, t.fn)
	}
	n.pendingTriggers = nil

	n.PushLevel(cfg.DataSource)
	return n
}

// PushLevel appends a data source built from cfg and makes it current.
// It has no effect on the store or the view. A pending step is superseded.
func (n *Navigator) PushLevel(cfg config.DataSource) ports.DataSource {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.supersedeLocked()
	return n.pushLevelLocked(cfg)
}

// PopLevel drops the top data source. The root is never dropped.
// Unless skipStoreData is set, the store's top slot is dropped as well.
// A pending step is superseded; when its candidate was the top level, dropping
// the candidate is the whole effect.
func (n *Navigator) PopLevel(skipStoreData bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	depth := len(n.stack)
	n.supersedeLocked()
	if len(n.stack) < depth {
		return
	}
	n.popLevelLocked(skipStoreData)
}

func (n *Navigator) pushLevelLocked(cfg config.DataSource) ports.DataSource {
	level := len(n.stack)
	src := n.factory(ports.SourceScope{
		Config:   cfg,
		Level:    level,
		RowCount: n.RowCount,
	})
	n.stack = append(n.stack, src)
	if level >= len(n.epochs) {
		n.epochs = append(n.epochs, atomic.NewUint64(0))
	}
	return src
}

func (n *Navigator) popLevelLocked(skipStoreData bool) {
	if len(n.stack) < 2 {
		return
	}
	n.stack[len(n.stack)-1] = nil
	n.stack = n.stack[:len(n.stack)-1]
	if !skipStoreData {
		n.store.PopData()
	}
}

func (n *Navigator) currentLocked() ports.DataSource {
	return n.stack[len(n.stack)-1]
}

// Level returns the zero-based level of the current data source.
func (n *Navigator) Level() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.stack) - 1
}

// Depth returns the number of data sources on the stack.
func (n *Navigator) Depth() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.stack)
}

// Current returns the current data source.
func (n *Navigator) Current() ports.DataSource {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.currentLocked()
}

// Config returns the configuration snapshot.
func (n *Navigator) Config() config.Config {
	return n.cfg
}

// SetRowCount sets the row cap applied to every level's query. Zero or less removes it.
func (n *Navigator) SetRowCount(count int) {
	n.rowCount.Store(int64(max(count, 0)))
}

// RowCount returns the row cap, zero when unset.
func (n *Navigator) RowCount() int {
	return int(n.rowCount.Load())
}

// SetFilter adds a filter to the current level.
func (n *Navigator) SetFilter(spec string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.currentLocked().SetFilter(spec)
}

// ClearFilters removes every filter of the current level.
func (n *Navigator) ClearFilters() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.currentLocked().ClearFilters()
}

// EffectiveQuery returns the current base query with its filters and the row cap applied.
func (n *Navigator) EffectiveQuery() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.currentLocked().Query()
}

// IsListing reports whether the displayed result is a flat listing.
func (n *Navigator) IsListing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.Data().IsListing()
}

// Model returns the displayed result.
func (n *Navigator) Model() *domain.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.Data()
}

// SelectedRows returns the selected row indices in ascending order.
func (n *Navigator) SelectedRows() []int {
	n.mu.Lock()
	selected := n.view.SelectedRows()
	n.mu.Unlock()

	rows := make([]int, 0, len(selected))
	for row, on := range selected {
		if on {
			rows = append(rows, row)
		}
	}
	slices.Sort(rows)
	return rows
}

// RowsValues returns the raw grid rows for one-based data row indices.
// Out of range rows yield nil entries.
func (n *Navigator) RowsValues(rows ...int) [][]any {
	n.mu.Lock()
	data := n.store.Data()
	n.mu.Unlock()

	out := make([][]any, len(rows))
	for i, row := range rows {
		if values, ok := data.RawRow(row); ok {
			out[i] = values
		}
	}
	return out
}

// UpdateSizes asks the view to recompute its layout.
func (n *Navigator) UpdateSizes() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.view.UpdateSizes()
}

// PivotProperty looks a value up in the configured pivot properties.
func (n *Navigator) PivotProperty(path ...string) (any, bool) {
	return n.cfg.PivotProperty(path...)
}

// AttachTrigger registers a callback for the named event.
func (n *Navigator) AttachTrigger(name string, fn any) bool {
	return n.triggers.Attach(name, fn)
}

// Triggers returns the trigger registry.
func (n *Navigator) Triggers() *Triggers {
	return n.triggers
}

// Snapshot returns a read-only view of the navigation state.
func (n *Navigator) Snapshot() domain.Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	cur := n.currentLocked()
	return domain.Snapshot{
		Level:          len(n.stack) - 1,
		Depth:          len(n.stack),
		Pending:        n.pending != nil,
		BaseQuery:      cur.BaseQuery(),
		Filters:        cur.Filters(),
		EffectiveQuery: cur.Query(),
		Listing:        n.store.Data().IsListing(),
		RowCount:       n.RowCount(),
	}
}

func (n *Navigator) invalidMessage(result *domain.Result) string {
	if result != nil && result.Error != "" {
		return result.Error
	}
	if n.locale != nil {
		if msg := n.locale.Get(msgInvalidData); msg != "" {
			return msg
		}
	}
	return fallbackInvalidData
}

func (n *Navigator) emit(ctx context.Context, hook func(context.Context, *domain.StepEvent), ev *domain.StepEvent) {
	if hook != nil {
		hook(ctx, ev)
	}
}
