package ports

import "github.com/aretw0/lightpivot/pkg/domain"

// View renders the displayed result. Calls are synchronous from the engine's point
// of view and rendering failures are not reported back.
// Implementations must not call back into the engine from these methods.
type View interface {
	// PushTable opens a new panel for a deeper level.
	PushTable(opts domain.PanelOptions)

	// PopTable closes the top panel and shows the previous one.
	PopTable()

	// DataChanged renders a new result in the top panel.
	DataChanged(result *domain.Result)

	// DisplayMessage shows a user-facing message in place of the table.
	DisplayMessage(text string)

	// UpdateSizes recomputes the layout.
	UpdateSizes()

	// SelectedRows returns the rows the user selected, keyed by row index.
	SelectedRows() map[int]bool
}

// Locale resolves display strings by numeric code.
type Locale interface {
	Get(code int) string
}
