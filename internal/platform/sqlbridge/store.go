// Package sqlbridge translates the parameterized SQL statements the
// repositories issue into calls against a table-oriented store. The backing
// store is addressed through the TableStore interface, so the translation
// layer itself never builds SQL strings and any table-shaped backend can
// satisfy it.
//
// The bridge supports exactly the statement shapes the application issues:
// single-table SELECT/INSERT/UPDATE/DELETE with AND-joined equality filters.
// ORDER BY, GROUP BY, LIMIT and OFFSET fragments are tolerated in the text but
// ignored; callers sort and page in memory.
package sqlbridge

import "context"

// Filter is a single equality condition on a column.
type Filter struct {
	Column string
	Value  any
}

// TableStore is the structured query surface the bridge drives.
type TableStore interface {
	Select(ctx context.Context, table string, filters []Filter) ([]Row, error)
	Insert(ctx context.Context, table string, values map[string]any) ([]Row, error)
	Update(ctx context.Context, table string, values map[string]any, filters []Filter) ([]Row, error)
	Delete(ctx context.Context, table string, filters []Filter) ([]Row, error)
}

// Result mirrors the rows-shaped result of a conventional SQL driver.
type Result struct {
	Rows []Row
}
