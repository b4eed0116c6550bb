package mdx_test

import (
	"testing"

	"github.com/aretw0/lightpivot/pkg/mdx"
	"github.com/stretchr/testify/assert"
)

const salesQuery = "SELECT NON EMPTY [Measures].[Amount] ON 0, NON EMPTY [Product].[Category].Members ON 1 FROM [Sales]"

func TestBuilder_ApplyFilter(t *testing.T) {
	b := mdx.New()
	assert.Equal(t, salesQuery+" %FILTER [Date].[2020]", b.ApplyFilter(salesQuery, "[Date].[2020]"))
	assert.Empty(t, b.ApplyFilter(salesQuery, ""))
	assert.Empty(t, b.ApplyFilter("", "[Date].[2020]"))
}

func TestBuilder_ApplyRowCount(t *testing.T) {
	b := mdx.New()
	assert.Equal(t,
		"SELECT NON EMPTY [Measures].[Amount] ON 0, NON EMPTY HEAD([Product].[Category].Members, 10) ON 1 FROM [Sales]",
		b.ApplyRowCount(salesQuery, 10))

	assert.Equal(t,
		"select [m] on columns, HEAD([p].Members, 5) on rows from [c]",
		b.ApplyRowCount("select [m] on columns, [p].Members on rows from [c]", 5))

	assert.Empty(t, b.ApplyRowCount(salesQuery, 0))
	assert.Empty(t, b.ApplyRowCount("SELECT FROM [Sales]", 10), "no row axis")
}

func TestBuilder_DrillDown(t *testing.T) {
	b := mdx.New()

	tests := []struct {
		name       string
		query      string
		filter     string
		expression string
		want       string
	}{
		{
			name:   "children of member",
			query:  salesQuery,
			filter: "[Product].[Category].&[1]",
			want:   "SELECT NON EMPTY [Measures].[Amount] ON 0, NON EMPTY [Product].[Category].&[1].Children ON 1 FROM [Sales] %FILTER [Product].[Category].&[1]",
		},
		{
			name:       "expression override",
			query:      salesQuery,
			filter:     "[Product].[Category].&[1]",
			expression: "[Product].[Name].Members",
			want:       "SELECT NON EMPTY [Measures].[Amount] ON 0, NON EMPTY [Product].[Name].Members ON 1 FROM [Sales] %FILTER [Product].[Category].&[1]",
		},
		{
			name:   "column axis only",
			query:  "SELECT [Measures].[Amount] ON 0 FROM [Sales]",
			filter: "[Date].[2020]",
			want:   "SELECT [Measures].[Amount] ON 0, NON EMPTY [Date].[2020].Children ON 1 FROM [Sales] %FILTER [Date].[2020]",
		},
		{
			name:   "no axes",
			query:  "SELECT FROM [Sales]",
			filter: "[Date].[2020]",
			want:   "",
		},
		{
			name:  "nothing to drill on",
			query: salesQuery,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.DrillDown(tt.query, tt.filter, tt.expression))
		})
	}
}

func TestBuilder_DrillThrough(t *testing.T) {
	b := mdx.New()

	assert.Equal(t,
		"DRILLTHROUGH SELECT FROM [Sales] %FILTER [Date].[2020]",
		b.DrillThrough(salesQuery, []string{"[Date].[2020]"}, ""))

	assert.Equal(t,
		"DRILLTHROUGH SELECT FROM [Sales] %FILTER [Region].&[EU] %FILTER [Date].[2020] %LISTING [orders]",
		b.DrillThrough(salesQuery+" %FILTER [Region].&[EU]", []string{"[Date].[2020]", " "}, "orders"))

	assert.Equal(t, "DRILLTHROUGH SELECT FROM [Sales]", b.DrillThrough(salesQuery, nil, ""))
	assert.Empty(t, b.DrillThrough("[Measures].[Amount]", nil, ""))
}
