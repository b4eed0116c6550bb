/*
Package ports defines the driven ports (interfaces) of the pivot navigation engine.

These interfaces decouple the navigation core from the query text engine, the data
transport, the data store and the rendering layer, so the same engine can drive a
terminal table, an HTTP API or a headless test harness.

# Key Interfaces

  - QueryBuilder: Pure MDX text transforms (filter, row cap, drill-down, drill-through).
  - DataSource: One per drill level; owns a base query and an ordered filter set.
  - Fetcher: Executes a final query string and returns a Result.
  - Store: Validates results and keeps the displayed result per level.
  - View: Renders the displayed result and keeps one panel per level.
  - Locale: Resolves display strings by numeric code.
*/
package ports
