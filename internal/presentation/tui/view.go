// Package tui renders pivot tables and messages on a terminal.
package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/aretw0/lightpivot/pkg/config"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
)

const defaultWidth = 80

type panel struct {
	opts domain.PanelOptions
	data *domain.Result
}

// View implements ports.View on a text stream. Every change of the top panel
// redraws it.
type View struct {
	mu       sync.Mutex
	out      io.Writer
	panels   []panel
	selected map[int]bool
	styles   styles

	width      int
	fixedWidth bool
	pageSize   int
	rowNumbers bool
	stretch    bool
	render     func(string) (string, error)
}

var _ ports.View = (*View)(nil)

// Option configures a View.
type Option func(*View)

// WithWidth fixes the layout width. UpdateSizes no longer probes the terminal.
func WithWidth(width int) Option {
	return func(v *View) {
		v.width = width
		v.fixedWidth = width > 0
	}
}

// WithPageSize limits the number of body rows drawn. Zero draws every row.
func WithPageSize(n int) Option {
	return func(v *View) {
		v.pageSize = n
	}
}

// WithRowNumbers prefixes listing rows with their one-based index.
func WithRowNumbers(on bool) Option {
	return func(v *View) {
		v.rowNumbers = on
	}
}

// WithStretch stretches tables to the layout width.
func WithStretch(on bool) Option {
	return func(v *View) {
		v.stretch = on
	}
}

// WithMessageRenderer renders messages before they are drawn, e.g. as markdown.
func WithMessageRenderer(render func(string) (string, error)) Option {
	return func(v *View) {
		v.render = render
	}
}

// FromConfig applies the display options of a pivot table configuration.
func FromConfig(cfg config.Config) Option {
	return func(v *View) {
		v.pageSize = cfg.Pagination
		v.rowNumbers = cfg.ShowListingRowsNumber
		v.stretch = cfg.StretchColumns
	}
}

// NewView creates a view drawing on out.
func NewView(out io.Writer, opts ...Option) *View {
	v := &View{
		out:      out,
		panels:   []panel{{}},
		selected: make(map[int]bool),
		styles:   newStyles(lipgloss.NewRenderer(out)),
		width:    defaultWidth,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// PushTable opens a new panel and clears the selection.
func (v *View) PushTable(opts domain.PanelOptions) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panels = append(v.panels, panel{opts: opts})
	clear(v.selected)
}

// PopTable closes the top panel and redraws the previous one.
func (v *View) PopTable() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.panels) < 2 {
		return
	}
	v.panels = v.panels[:len(v.panels)-1]
	clear(v.selected)
	v.drawLocked()
}

// DataChanged draws result in the top panel.
func (v *View) DataChanged(result *domain.Result) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panels[len(v.panels)-1].data = result
	v.drawLocked()
}

// DisplayMessage draws text in place of the table.
func (v *View) DisplayMessage(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	body := text
	if v.render != nil {
		if rendered, err := v.render(text); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	fmt.Fprintln(v.out, v.titleLocked())
	fmt.Fprintln(v.out, v.styles.message.Render(body))
}

// UpdateSizes reads the terminal width when the view draws on a terminal.
func (v *View) UpdateSizes() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fixedWidth {
		return
	}
	f, ok := v.out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		v.width = width
	}
}

// SelectedRows returns a copy of the selection.
func (v *View) SelectedRows() map[int]bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[int]bool, len(v.selected))
	for k, on := range v.selected {
		out[k] = on
	}
	return out
}

// Select marks a one-based body row as selected or not.
func (v *View) Select(row int, on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected[row] = on
}

// Toggle flips the selection of a row and returns its new state.
func (v *View) Toggle(row int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected[row] = !v.selected[row]
	return v.selected[row]
}

// Width returns the current layout width.
func (v *View) Width() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width
}

// Depth returns the number of panels.
func (v *View) Depth() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.panels)
}

// Redraw draws the top panel again.
func (v *View) Redraw() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drawLocked()
}

func (v *View) titleLocked() string {
	return v.styles.title.Render(fmt.Sprintf("lightpivot › level %d", len(v.panels)-1))
}

func (v *View) drawLocked() {
	top := v.panels[len(v.panels)-1]
	if top.data == nil {
		return
	}

	title := v.titleLocked()
	if top.data.IsListing() {
		title += v.styles.footer.Render(" (listing)")
	}
	out, hidden := renderTable(top.data, layout{
		Width:      v.width,
		PageSize:   v.pageSize,
		RowNumbers: v.rowNumbers,
		Stretch:    v.stretch,
		Selected:   v.selected,
		Panel:      top.opts,
	}, v.styles)

	fmt.Fprintln(v.out, title)
	fmt.Fprintln(v.out, out)
	if hidden > 0 {
		fmt.Fprintln(v.out, v.styles.footer.Render(fmt.Sprintf("… %d more rows", hidden)))
	}
}
