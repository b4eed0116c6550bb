package domain

// PanelOptions configures a view panel pushed for a new drill level.
type PanelOptions struct {
	DisableConditionalFormatting bool `json:"disableConditionalFormatting,omitempty"`
}

// Snapshot is a read-only view of the navigation stack.
type Snapshot struct {
	// Level is the current drill level (Depth - 1).
	Level int `json:"level"`

	// Depth is the number of data sources on the stack.
	Depth int `json:"depth"`

	// Pending is true while a speculative step is waiting for its fetch.
	Pending bool `json:"pending"`

	// BaseQuery is the base query of the current level.
	BaseQuery string `json:"baseQuery"`

	// Filters are the active filters of the current level, in order.
	Filters []string `json:"filters"`

	// EffectiveQuery is the base query with filters and the row cap applied.
	EffectiveQuery string `json:"effectiveQuery"`

	// Listing is true when the displayed result is a flat listing.
	Listing bool `json:"listing"`

	// RowCount is the configured row cap, zero when unset.
	RowCount int `json:"rowCount,omitempty"`
}
