// Package mdx implements the MDX text transforms used to derive drill queries.
//
// The transforms operate on the query text only; they do not parse the full MDX
// grammar. Queries are expected in the "SELECT <cols> ON 0, <rows> ON 1 FROM <cube>"
// layout produced by the analyzer, optionally followed by %FILTER clauses.
package mdx

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/lightpivot/pkg/ports"
)

var (
	// rowsAxis captures: prefix through the column axis, an optional NON EMPTY,
	// the row set, the row axis marker and the rest of the query.
	rowsAxis = regexp.MustCompile(`(?is)^(.*\bON\s+(?:0|COLUMNS)\s*,\s*)(NON\s+EMPTY\s+)?(.+?)(\s+ON\s+(?:1|ROWS)\b)(.*)$`)

	// columnsOnly matches a query that has a column axis but no row axis.
	columnsOnly = regexp.MustCompile(`(?is)^(.*\bON\s+(?:0|COLUMNS))(\s+FROM\b.*)$`)
)

// Builder implements ports.QueryBuilder.
type Builder struct{}

var _ ports.QueryBuilder = (*Builder)(nil)

// New returns a Builder.
func New() *Builder {
	return &Builder{}
}

// ApplyFilter appends a %FILTER clause.
func (b *Builder) ApplyFilter(query, filter string) string {
	query = strings.TrimSpace(query)
	filter = strings.TrimSpace(filter)
	if query == "" || filter == "" {
		return ""
	}
	return query + " %FILTER " + filter
}

// ApplyRowCount wraps the row set in HEAD(set, n).
func (b *Builder) ApplyRowCount(query string, n int) string {
	if n <= 0 {
		return ""
	}
	m := rowsAxis.FindStringSubmatch(strings.TrimSpace(query))
	if m == nil {
		return ""
	}
	return m[1] + m[2] + "HEAD(" + m[3] + ", " + strconv.Itoa(n) + ")" + m[4] + m[5]
}

// DrillDown replaces the row set with the children of the filtered member, or with
// expression when one is given, and constrains the query with the filter.
func (b *Builder) DrillDown(query, filter, expression string) string {
	query = strings.TrimSpace(query)
	filter = strings.TrimSpace(filter)
	expression = strings.TrimSpace(expression)
	if query == "" || (filter == "" && expression == "") {
		return ""
	}

	rows := expression
	if rows == "" {
		rows = filter + ".Children"
	}

	var out string
	if m := rowsAxis.FindStringSubmatch(query); m != nil {
		nonEmpty := m[2]
		if nonEmpty == "" {
			nonEmpty = "NON EMPTY "
		}
		out = m[1] + nonEmpty + rows + m[4] + m[5]
	} else if m := columnsOnly.FindStringSubmatch(query); m != nil {
		out = m[1] + ", NON EMPTY " + rows + " ON 1" + m[2]
	} else {
		return ""
	}

	if filter != "" {
		out += " %FILTER " + filter
	}
	return out
}

// DrillThrough builds a DRILLTHROUGH statement over the cube and filters of query.
func (b *Builder) DrillThrough(query string, filters []string, listingTarget string) string {
	query = strings.TrimSpace(query)
	idx := strings.LastIndex(strings.ToUpper(query), "FROM ")
	if idx < 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("DRILLTHROUGH SELECT ")
	sb.WriteString(query[idx:])
	for _, f := range filters {
		if f = strings.TrimSpace(f); f != "" {
			sb.WriteString(" %FILTER ")
			sb.WriteString(f)
		}
	}
	if listingTarget != "" {
		sb.WriteString(" %LISTING [")
		sb.WriteString(listingTarget)
		sb.WriteString("]")
	}
	return sb.String()
}
