package sqlbridge

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Client executes parameterized SQL text against a TableStore.
type Client struct {
	store TableStore
}

func NewClient(store TableStore) *Client {
	return &Client{store: store}
}

// Tables whose integer primary key is assigned by the store. When an INSERT
// lists the id column explicitly, both the column and its bound parameter are
// dropped so the store can allocate the key.
var autoIncrementTables = map[string]bool{
	"patients":        true,
	"users":           true,
	"care_teams":      true,
	"patient_notes":   true,
	"vital_signs":     true,
	"treatment_plans": true,
	"user_sessions":   true,
}

// audit_logs inserts always carry the same eleven parameters in this order.
var auditLogColumns = []string{
	"user_id", "patient_id", "action", "entity_type", "entity_id",
	"old_values", "new_values", "ip_address", "user_agent", "session_id",
	"created_at",
}

var (
	fromPattern      = regexp.MustCompile(`(?i)from\s+(\S+)`)
	insertPattern    = regexp.MustCompile(`(?i)insert\s+into\s+([^\s(]+)`)
	updatePattern    = regexp.MustCompile(`(?i)update\s+(\S+)`)
	deletePattern    = regexp.MustCompile(`(?i)delete\s+from\s+(\S+)`)
	nonIdentifier    = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	wherePattern     = regexp.MustCompile(`(?i)\bwhere\b`)
	clauseTerminator = regexp.MustCompile(`(?i)\s+(order\s+by|group\s+by|having|limit|offset|returning)\s+`)
	insertColumns    = regexp.MustCompile(`(?is)\(([^)]+)\)\s*values`)
	setClause        = regexp.MustCompile(`(?is)\bset\s+(.+?)(?:\bwhere\b|$)`)
	andSplitter      = regexp.MustCompile(`(?i)\s+and\s+`)
)

// Query runs one SQL statement with positional parameters and returns the
// affected or matched rows. Only SELECT, INSERT, UPDATE and DELETE are
// understood; everything else is rejected.
func (c *Client) Query(ctx context.Context, text string, params []any) (*Result, error) {
	trimmed := strings.TrimSpace(text)
	keyword := strings.ToLower(firstWord(trimmed))

	switch keyword {
	case "select":
		return c.doSelect(ctx, trimmed, params)
	case "insert":
		return c.doInsert(ctx, trimmed, params)
	case "update":
		return c.doUpdate(ctx, trimmed, params)
	case "delete":
		return c.doDelete(ctx, trimmed, params)
	default:
		return nil, fmt.Errorf("unsupported query type %q: only SELECT, INSERT, UPDATE and DELETE are implemented", keyword)
	}
}

func (c *Client) doSelect(ctx context.Context, text string, params []any) (*Result, error) {
	table, err := extractTableName(text)
	if err != nil {
		return nil, err
	}
	filters := parseFilters(extractWhereClause(text), params)
	rows, err := c.store.Select(ctx, table, filters)
	if err != nil {
		return nil, fmt.Errorf("select failed: %w", err)
	}
	return &Result{Rows: rows}, nil
}

func (c *Client) doInsert(ctx context.Context, text string, params []any) (*Result, error) {
	table, err := extractTableName(text)
	if err != nil {
		return nil, err
	}

	var columns []string
	values := params
	if table == "audit_logs" {
		columns = auditLogColumns
	} else {
		m := insertColumns.FindStringSubmatch(text)
		if m == nil {
			return nil, fmt.Errorf("could not parse insert columns")
		}
		for _, col := range strings.Split(m[1], ",") {
			columns = append(columns, strings.TrimSpace(col))
		}
		if autoIncrementTables[table] {
			for i, col := range columns {
				if col == "id" && i < len(values) {
					columns = append(columns[:i], columns[i+1:]...)
					values = append(append([]any{}, values[:i]...), values[i+1:]...)
					break
				}
			}
		}
	}

	if len(columns) != len(values) {
		return nil, fmt.Errorf("column count (%d) does not match parameter count (%d)", len(columns), len(values))
	}

	record := make(map[string]any, len(columns))
	for i, col := range columns {
		record[col] = values[i]
	}

	rows, err := c.store.Insert(ctx, table, record)
	if err != nil {
		return nil, fmt.Errorf("insert failed: %w", err)
	}
	return &Result{Rows: rows}, nil
}

func (c *Client) doUpdate(ctx context.Context, text string, params []any) (*Result, error) {
	table, err := extractTableName(text)
	if err != nil {
		return nil, err
	}

	m := setClause.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("could not parse update set clause")
	}
	values := make(map[string]any)
	for _, part := range strings.Split(m[1], ",") {
		col, placeholder, ok := splitAssignment(part)
		if !ok {
			continue
		}
		if idx, ok := paramIndex(placeholder, len(params)); ok {
			values[col] = params[idx]
		}
	}

	where := extractWhereClause(text)
	if where == "" {
		return nil, fmt.Errorf("update statement missing where clause")
	}
	filters := parseFilters(where, params)
	if len(filters) == 0 {
		return nil, fmt.Errorf("update statement missing where clause")
	}

	rows, err := c.store.Update(ctx, table, values, filters)
	if err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}
	return &Result{Rows: rows}, nil
}

func (c *Client) doDelete(ctx context.Context, text string, params []any) (*Result, error) {
	table, err := extractTableName(text)
	if err != nil {
		return nil, err
	}
	where := extractWhereClause(text)
	if where == "" {
		return nil, fmt.Errorf("delete statement missing where clause")
	}
	filters := parseFilters(where, params)
	if len(filters) == 0 {
		return nil, fmt.Errorf("delete statement missing where clause")
	}

	rows, err := c.store.Delete(ctx, table, filters)
	if err != nil {
		return nil, fmt.Errorf("delete failed: %w", err)
	}
	return &Result{Rows: rows}, nil
}

func firstWord(s string) string {
	if i := strings.IndexFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }); i >= 0 {
		return s[:i]
	}
	return s
}

func extractTableName(sql string) (string, error) {
	keyword := strings.ToLower(firstWord(strings.TrimSpace(sql)))
	var m []string
	switch keyword {
	case "insert":
		m = insertPattern.FindStringSubmatch(sql)
	case "update":
		m = updatePattern.FindStringSubmatch(sql)
	case "delete":
		m = deletePattern.FindStringSubmatch(sql)
	default:
		m = fromPattern.FindStringSubmatch(sql)
	}
	if m == nil {
		return "", fmt.Errorf("could not extract table name from statement")
	}
	name := nonIdentifier.ReplaceAllString(m[1], "")
	if name == "" {
		return "", fmt.Errorf("could not extract table name from statement")
	}
	return name, nil
}

// extractWhereClause returns the WHERE conditions with normalized whitespace,
// cut before any trailing ORDER BY / GROUP BY / HAVING / LIMIT / OFFSET.
func extractWhereClause(sql string) string {
	loc := wherePattern.FindStringIndex(sql)
	if loc == nil {
		return ""
	}
	rest := sql[loc[1]:]
	if end := clauseTerminator.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	rest = strings.TrimSuffix(strings.TrimSpace(rest), ";")
	return strings.Join(strings.Fields(rest), " ")
}

// parseFilters turns AND-joined equality conditions into store filters.
// Recognized right-hand sides are positional placeholders ($n) and the
// literals true/false; anything else is skipped. Table prefixes on column
// names are stripped.
func parseFilters(where string, params []any) []Filter {
	if where == "" {
		return nil
	}
	var filters []Filter
	for _, condition := range andSplitter.Split(where, -1) {
		col, rhs, ok := splitAssignment(condition)
		if !ok {
			continue
		}
		if idx, isParam := paramIndex(rhs, len(params)); isParam {
			filters = append(filters, Filter{Column: col, Value: params[idx]})
			continue
		}
		switch strings.ToLower(rhs) {
		case "true":
			filters = append(filters, Filter{Column: col, Value: true})
		case "false":
			filters = append(filters, Filter{Column: col, Value: false})
		}
	}
	return filters
}

// splitAssignment splits "col = rhs" and strips any table qualifier from the
// column name.
func splitAssignment(s string) (column, rhs string, ok bool) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	column = strings.TrimSpace(parts[0])
	rhs = strings.TrimSpace(parts[1])
	if column == "" || rhs == "" || strings.Contains(rhs, "=") {
		return "", "", false
	}
	if i := strings.LastIndex(column, "."); i >= 0 {
		column = column[i+1:]
	}
	return column, rhs, true
}

func paramIndex(placeholder string, max int) (int, bool) {
	if !strings.HasPrefix(placeholder, "$") {
		return 0, false
	}
	n, err := strconv.Atoi(placeholder[1:])
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n - 1, true
}
