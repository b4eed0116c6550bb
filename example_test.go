package lightpivot_test

import (
	"context"
	"fmt"

	"github.com/aretw0/lightpivot"
	"github.com/aretw0/lightpivot/pkg/adapters/memory"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/mdx"
)

func Example() {
	query := "SELECT [Measures].[Amount] ON 0, [Date].[Year].Members ON 1 FROM [Sales]"
	year := "[Date].[H1].[Year].&[2020]"

	fetcher := memory.NewFetcher(map[string]*domain.Result{query: pivot("root")})
	fetcher.Add(mdx.New().DrillDown(query, year, ""), pivot("[Date].[H1].[Month].&[202001]"))

	ctx := context.Background()
	table, err := lightpivot.New(ctx, map[string]any{
		"dataSource": map[string]any{"basicMDX": query},
	}, lightpivot.WithFetcher(fetcher))
	if err != nil {
		panic(err)
	}

	table.AttachTrigger("drillDown", func(e domain.DrillDownEvent) {
		fmt.Println("drilled into", e.Path)
	})

	fmt.Println(table.TryDrillDown(ctx, year), table.Level())
	fmt.Println(table.TryDrillDown(ctx, "[Date].[H1].[Year].&[1999]"), table.Level())
	fmt.Println(table.Back(), table.Level())

	// Output:
	// drilled into [Date].[H1].[Month].&[202001]
	// committed 1
	// rolled_back 1
	// committed 0
}
