/*
Package domain contains the core models of the pivot navigation engine.

It defines what flows between the engine and its collaborators: query results
(cubes and listings), the events fired on navigation, the outcome of a navigation
step and the snapshot of the navigation stack. This package is kept free of I/O and
third-party dependencies.

# Key Entities

  - Result: A fetched cube or listing (row collection, axis members, header info, raw grid).
  - Member: A header member of an axis, carrying caption, dimension and hierarchical path.
  - Event: A navigation event delivered to host triggers (DrillDown, DrillThrough, Back).
  - Outcome: How a navigation step ended (committed, rolled back, superseded, ...).
  - Snapshot: A read-only view of the navigation stack.
*/
package domain
