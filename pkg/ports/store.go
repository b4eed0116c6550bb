package ports

import "github.com/aretw0/lightpivot/pkg/domain"

// Store validates fetched results and keeps the displayed result of each level.
// Its slot stack runs parallel to the navigation stack.
type Store interface {
	// IsValid reports whether a result has the shape the table can display.
	IsValid(result *domain.Result) bool

	// SetData replaces the result of the top slot.
	SetData(result *domain.Result)

	// Data returns the result of the top slot, or nil.
	Data() *domain.Result

	// PushData opens a new slot for a deeper level.
	PushData()

	// PopData drops the top slot. The root slot is never dropped.
	PopData()

	// Depth returns the number of slots.
	Depth() int
}
