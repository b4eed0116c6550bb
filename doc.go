/*
Package lightpivot is a navigation engine for OLAP pivot tables.

A Table shows the result of an MDX query and lets the user drill into it. Each drill
step opens a new level on a stack: a drill-down narrows the query to the children of
a member, a drill-through opens the record listing behind a cell. Levels are opened
speculatively. The child query is fetched and validated first, and the level is kept
only when the result can be displayed. Otherwise it is discarded and the table stays
where it was.

# Architecture

The engine keeps three stacks at the same depth:

  - data sources (pkg/ports.DataSource): base query and filters of each level
  - the store (pkg/ports.Store): the validated result of each level
  - the view (pkg/ports.View): one panel per level

Queries are executed by a pkg/ports.Fetcher. By default queries are posted to the
configured dataSource.server; pkg/adapters/redis caches results and
pkg/adapters/memory serves fixed results for tests and demos.

# Usage

	table, err := lightpivot.New(ctx, map[string]any{
		"dataSource": map[string]any{
			"server":   "http://localhost:57772/MDX2JSON",
			"basicMDX": "SELECT [Measures].[Amount] ON 0, [Date].[Year].Members ON 1 FROM [Sales]",
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	table.AttachTrigger("drillDown", func(e domain.DrillDownEvent) {
		log.Printf("level %d: %s", e.Level, e.Path)
	})

	switch table.TryDrillDown(ctx, "[Date].[H1].[Year].&[2020]") {
	case domain.OutcomeCommitted:
		// the child level is displayed
	case domain.OutcomeRolledBack:
		// nothing to drill into
	}

Concurrent steps supersede each other: a step started while another is waiting for
its fetch cancels it, and the earlier step reports domain.OutcomeSuperseded.
*/
package lightpivot
