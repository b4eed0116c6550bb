package memory

import (
	"sync"

	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
)

// Panel is a recorded view panel.
type Panel struct {
	Options  domain.PanelOptions
	Data     *domain.Result
	Messages []string
}

// View implements ports.View by recording what would be rendered.
// It is used for headless hosts and tests.
type View struct {
	mu       sync.Mutex
	panels   []Panel
	selected map[int]bool
	resizes  int
}

var _ ports.View = (*View)(nil)

// NewView creates a view with a root panel.
func NewView() *View {
	return &View{
		panels:   []Panel{{}},
		selected: make(map[int]bool),
	}
}

// PushTable opens a new panel.
func (v *View) PushTable(opts domain.PanelOptions) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panels = append(v.panels, Panel{Options: opts})
	clear(v.selected)
}

// PopTable closes the top panel. The root panel is kept.
func (v *View) PopTable() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.panels) < 2 {
		return
	}
	v.panels = v.panels[:len(v.panels)-1]
	clear(v.selected)
}

// DataChanged records the result shown in the top panel.
func (v *View) DataChanged(result *domain.Result) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panels[len(v.panels)-1].Data = result
}

// DisplayMessage records a message on the top panel.
func (v *View) DisplayMessage(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	top := &v.panels[len(v.panels)-1]
	top.Messages = append(top.Messages, text)
}

// UpdateSizes counts layout requests.
func (v *View) UpdateSizes() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resizes++
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

// Select marks a row as selected or not, as a user click would.
func (v *View) Select(row int, on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected[row] = on
}

// Depth returns the number of panels.
func (v *View) Depth() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.panels)
}

// Top returns a copy of the top panel.
func (v *View) Top() Panel {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := v.panels[len(v.panels)-1]
	p.Messages = append([]string(nil), p.Messages...)
	return p
}

// Resizes returns how many times UpdateSizes was called.
func (v *View) Resizes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resizes
}
