package ports

import (
	"context"

	"github.com/aretw0/lightpivot/pkg/domain"
)

// Navigator is the surface the navigation engine exposes to host adapters
// (HTTP, MCP, console).
type Navigator interface {
	Refresh(ctx context.Context) domain.Outcome
	ChangeBaseQuery(ctx context.Context, query string) domain.Outcome
	TryDrillDown(ctx context.Context, filter string) domain.Outcome
	TryDrillThrough(ctx context.Context, filters []string) domain.Outcome
	CustomDrillThrough(ctx context.Context, filters any) domain.Outcome
	Back() domain.Outcome

	SetRowCount(n int)
	SetFilter(spec string)
	ClearFilters()

	EffectiveQuery() string
	IsListing() bool
	SelectedRows() []int
	RowsValues(rows ...int) [][]any
	Model() *domain.Result
	PivotProperty(path ...string) (any, bool)
	Snapshot() domain.Snapshot
}
