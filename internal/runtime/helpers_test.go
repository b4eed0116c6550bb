package runtime_test

import (
	"github.com/stretchr/testify/mock"

	"github.com/aretw0/lightpivot/internal/runtime"
	"github.com/aretw0/lightpivot/pkg/adapters/memory"
	"github.com/aretw0/lightpivot/pkg/config"
	"github.com/aretw0/lightpivot/pkg/datasource"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/mdx"
	"github.com/aretw0/lightpivot/pkg/ports"
)

// MockBuilder is a testify mock of ports.QueryBuilder.
type MockBuilder struct {
	mock.Mock
}

func (m *MockBuilder) ApplyFilter(query, filter string) string {
	return m.Called(query, filter).String(0)
}

func (m *MockBuilder) ApplyRowCount(query string, n int) string {
	return m.Called(query, n).String(0)
}

func (m *MockBuilder) DrillDown(query, filter, expression string) string {
	return m.Called(query, filter, expression).String(0)
}

func (m *MockBuilder) DrillThrough(query string, filters []string, listingTarget string) string {
	return m.Called(query, filters, listingTarget).String(0)
}

const baseQuery = "SELECT [Measures].[Amount] ON 0, [Date].[Year].Members ON 1 FROM [Sales]"

type fixture struct {
	nav     *runtime.Navigator
	store   *memory.Store
	view    *memory.View
	fetcher *memory.Fetcher
}

func newFixture(cfg config.Config, builder ports.QueryBuilder, fetcher ports.Fetcher, opts ...runtime.Option) *fixture {
	f := &fixture{
		store: memory.NewStore(),
		view:  memory.NewView(),
	}
	if mf, ok := fetcher.(*memory.Fetcher); ok {
		f.fetcher = mf
	}
	f.nav = runtime.NewNavigator(cfg, builder, datasource.NewFactory(builder, fetcher), f.store, f.view, opts...)
	return f
}

func newMDXFixture(cfg config.Config, results map[string]*domain.Result, opts ...runtime.Option) *fixture {
	return newFixture(cfg, mdx.New(), memory.NewFetcher(results), opts...)
}

func configWithBase(base string) config.Config {
	cfg := config.Default()
	cfg.DataSource.BasicMDX = base
	return cfg
}

func pivotResult(path string) *domain.Result {
	return &domain.Result{
		DataArray: []any{10, 20},
		Dimensions: [][]domain.Member{
			{{Caption: "Amount"}},
			{{Caption: "Q1", Dimension: "[Date]", Path: path}},
		},
		Info: &domain.Info{CubeName: "Sales", LeftHeaderColumnsNumber: 1, TopHeaderRowsNumber: 1},
		RawData: [][]any{
			{"", "Amount"},
			{"Q1", 10},
			{"Q2", 20},
		},
	}
}

func listingResult() *domain.Result {
	return &domain.Result{
		DataArray:  []any{"A-1", "A-2"},
		Dimensions: [][]domain.Member{{{Caption: "Order"}}, {}},
		Info:       &domain.Info{LeftHeaderColumnsNumber: 0, TopHeaderRowsNumber: 1},
		RawData: [][]any{
			{"Order", "Amount"},
			{"A-1", 5},
			{"A-2", 7},
		},
	}
}
