package lightpivot_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lightpivot"
	"github.com/aretw0/lightpivot/pkg/adapters/memory"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/mdx"
)

const base = "SELECT [Measures].[Amount] ON 0, [Date].[Year].Members ON 1 FROM [Sales]"

func pivot(path string) *domain.Result {
	return &domain.Result{
		DataArray:  []any{1.0, 2.0},
		Dimensions: [][]domain.Member{{{Caption: "Amount"}}, {{Caption: "Q1", Path: path}}},
		Info:       &domain.Info{LeftHeaderColumnsNumber: 1, TopHeaderRowsNumber: 1},
		RawData:    [][]any{{"", "Amount"}, {"Q1", 1.0}, {"Q2", 2.0}},
	}
}

func rawConfig() map[string]any {
	return map[string]any{
		"dataSource": map[string]any{"basicMDX": base},
		"controls": []any{
			map[string]any{"action": "showListing", "targetProperty": "orders"},
		},
		"pivotProperties": map[string]any{"columnsWidth": map[string]any{"Amount": 120}},
	}
}

func TestNew_RefreshesRootLevel(t *testing.T) {
	fetcher := memory.NewFetcher(map[string]*domain.Result{base: pivot("root")})

	table, err := lightpivot.New(context.Background(), rawConfig(), lightpivot.WithFetcher(fetcher))
	require.NoError(t, err)

	require.NotNil(t, table.Model())
	assert.Equal(t, 0, table.Level())
	assert.Equal(t, 1, table.Depth())
	assert.Equal(t, []string{base}, fetcher.Queries())
	assert.Equal(t, base, table.Config().DataSource.BasicMDX)

	v, ok := table.PivotProperty("columnsWidth", "Amount")
	require.True(t, ok)
	assert.Equal(t, 120, v)
}

func TestNew_WithoutInitialRefresh(t *testing.T) {
	fetcher := memory.NewFetcher(nil)

	table, err := lightpivot.New(context.Background(), rawConfig(),
		lightpivot.WithFetcher(fetcher), lightpivot.WithoutInitialRefresh())
	require.NoError(t, err)

	assert.Nil(t, table.Model())
	assert.Empty(t, fetcher.Queries())
}

func TestNew_MalformedConfigFallsBackToDefaults(t *testing.T) {
	table, err := lightpivot.New(context.Background(), map[string]any{"pagination": "many"})
	require.NoError(t, err)

	assert.Equal(t, 200, table.Config().Pagination)
	assert.True(t, table.Config().ShowListingRowsNumber)
	assert.Equal(t, domain.OutcomeRejected, table.Refresh(context.Background()))

	table, err = lightpivot.New(context.Background(), "not a record")
	require.NoError(t, err)
	assert.Equal(t, 200, table.Config().Pagination)
}

func TestNew_DefaultFetcherWithoutServer(t *testing.T) {
	view := memory.NewView()
	_, err := lightpivot.New(context.Background(), rawConfig(), lightpivot.WithView(view))
	require.NoError(t, err)

	require.NotEmpty(t, view.Top().Messages)
	assert.Contains(t, view.Top().Messages[0], domain.ErrNoServer.Error())
}

func TestNew_QueriesConfiguredServer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MDX string `json:"MDX"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		got = body.MDX
		_ = json.NewEncoder(w).Encode(pivot("root"))
	}))
	defer srv.Close()

	raw := rawConfig()
	raw["dataSource"] = map[string]any{"basicMDX": base, "server": srv.URL}

	table, err := lightpivot.New(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, base, got)
	require.NotNil(t, table.Model())
	assert.Equal(t, "root", table.Model().Dimensions[1][0].Path)
}

func TestNew_ConfiguredLocale(t *testing.T) {
	fetcher := memory.NewFetcher(map[string]*domain.Result{base: {}})
	view := memory.NewView()

	raw := rawConfig()
	raw["locale"] = "ru"
	_, err := lightpivot.New(context.Background(), raw, lightpivot.WithFetcher(fetcher), lightpivot.WithView(view))
	require.NoError(t, err)

	assert.Equal(t, []string{"Неверные данные"}, view.Top().Messages)
}

func TestTable_Navigation(t *testing.T) {
	b := mdx.New()
	fetcher := memory.NewFetcher(map[string]*domain.Result{base: pivot("root")})
	fetcher.Add(b.DrillDown(base, "[Date].&[2020]", ""), pivot("P1"))
	fetcher.Add(b.DrillThrough(base, []string{"[Date].&[2020]"}, "orders"), &domain.Result{
		DataArray:  []any{7},
		Dimensions: [][]domain.Member{},
		Info:       &domain.Info{},
		RawData:    [][]any{{"ID"}, {7}},
	})

	var drills []domain.DrillDownEvent
	var throughs []domain.DrillThroughEvent
	table, err := lightpivot.New(context.Background(), rawConfig(),
		lightpivot.WithFetcher(fetcher),
		lightpivot.WithTrigger("drillDown", func(e domain.DrillDownEvent) { drills = append(drills, e) }),
	)
	require.NoError(t, err)
	assert.True(t, table.AttachTrigger("drillThrough", func(e domain.DrillThroughEvent) { throughs = append(throughs, e) }))

	ctx := context.Background()
	require.Equal(t, domain.OutcomeCommitted, table.TryDrillDown(ctx, "[Date].&[2020]"))
	require.Len(t, drills, 1)
	assert.Equal(t, domain.DrillDownEvent{Level: 1, Query: b.DrillDown(base, "[Date].&[2020]", ""), Path: "P1"}, drills[0])

	assert.Equal(t, domain.OutcomeRolledBack, table.TryDrillDown(ctx, "[Date].&[1999]"))
	assert.Equal(t, 1, table.Level())

	assert.Equal(t, domain.OutcomeCommitted, table.Back())
	assert.Equal(t, 0, table.Level())

	require.Equal(t, domain.OutcomeCommitted, table.TryDrillThrough(ctx, []string{"[Date].&[2020]"}))
	require.Len(t, throughs, 1)
	assert.True(t, table.IsListing())
	assert.Equal(t, [][]any{{7}}, table.RowsValues(1))

	assert.Equal(t, domain.OutcomeRejected, table.CustomDrillThrough(ctx, "[Date].&[2020]"))

	assert.Equal(t, domain.OutcomeCommitted, table.ChangeBaseQuery(ctx, base))
	assert.Equal(t, 1, table.Depth())
}

func TestTable_FiltersAndRowCount(t *testing.T) {
	b := mdx.New()
	table, err := lightpivot.New(context.Background(), rawConfig(),
		lightpivot.WithFetcher(memory.NewFetcher(nil)), lightpivot.WithoutInitialRefresh())
	require.NoError(t, err)

	table.SetFilter("F1")
	table.SetRowCount(10)
	assert.Equal(t, b.ApplyRowCount(b.ApplyFilter(base, "F1"), 10), table.EffectiveQuery())
	assert.Equal(t, 10, table.Snapshot().RowCount)

	table.ClearFilters()
	table.SetRowCount(0)
	assert.Equal(t, base, table.EffectiveQuery())
}

func TestTable_SelectedRowsAndSizes(t *testing.T) {
	view := memory.NewView()
	table, err := lightpivot.New(context.Background(), rawConfig(),
		lightpivot.WithFetcher(memory.NewFetcher(nil)),
		lightpivot.WithView(view),
		lightpivot.WithoutInitialRefresh())
	require.NoError(t, err)

	view.Select(3, true)
	view.Select(1, true)
	view.Select(2, false)
	assert.Equal(t, []int{1, 3}, table.SelectedRows())

	table.UpdateSizes()
	assert.Equal(t, 1, view.Resizes())
}
