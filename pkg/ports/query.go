package ports

// QueryBuilder produces new query strings from existing ones.
// All methods are pure. An empty return value means "no change": the caller keeps
// the query it already had.
type QueryBuilder interface {
	// ApplyFilter constrains the query with a filter fragment.
	ApplyFilter(query, filter string) string

	// ApplyRowCount caps the number of rows returned by the query.
	ApplyRowCount(query string, n int) string

	// DrillDown narrows the query to the member identified by filter.
	// A non-empty expression replaces the default row set of the child query.
	DrillDown(query, filter, expression string) string

	// DrillThrough turns the query into a record listing constrained by filters.
	// A non-empty listingTarget selects a custom listing.
	DrillThrough(query string, filters []string, listingTarget string) string
}
