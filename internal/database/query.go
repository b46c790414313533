package database

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/koustreak/cowclash/internal/errs"
)

// validOps is the allowlist of comparison operators for WHERE clauses.
// Any operator not in this list is rejected to prevent SQL injection
// through the operator position (which cannot be parameterized).
var validOps = map[string]bool{
	"=":    true,
	"!=":   true,
	"<>":   true,
	"<":    true,
	">":    true,
	"<=":   true,
	">=":   true,
	"LIKE": true,
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SelectBuilder constructs a parameterized SELECT query using a fluent API.
// Values are never interpolated into the SQL string; they are passed as
// parameters behind `?` markers, which the Gateway rebinds per dialect.
//
// Usage:
//
//	query, params, err := Select("kits", DialectMySQL).
//	    Columns("name", "items").
//	    Where("name", "=", Text("archer")).
//	    OrderBy("name", Asc).
//	    Limit(20).
//	    Build()
//	cur, err := gw.ExecuteQuery(ctx, query, params...)
type SelectBuilder struct {
	table   string
	dialect Dialect
	columns []string
	where   []whereClause
	orderBy []orderClause
	limit   *int
	offset  *int
}

// SortDirection controls the ORDER BY direction.
type SortDirection bool

const (
	Asc  SortDirection = false
	Desc SortDirection = true
)

type whereClause struct {
	column string
	op     string
	value  Value
}

type orderClause struct {
	column string
	dir    SortDirection
}

// Select starts a new SelectBuilder for the given table. The dialect only
// affects identifier quoting.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Where adds a WHERE condition. op must be one of the allowed comparison
// operators (=, !=, <>, <, >, <=, >=, LIKE).
// Multiple calls are combined with AND.
func (b *SelectBuilder) Where(column, op string, value Value) *SelectBuilder {
	b.where = append(b.where, whereClause{column, op, value})
	return b
}

// OrderBy appends an ORDER BY clause for the given column and direction.
func (b *SelectBuilder) OrderBy(column string, dir SortDirection) *SelectBuilder {
	b.orderBy = append(b.orderBy, orderClause{column, dir})
	return b
}

// Limit sets the maximum number of rows to return.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Offset sets the number of rows to skip (for pagination).
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = &n
	return b
}

// Build produces the final SQL string and parameter slice.
// Returns an errs.ErrKindInvalidInput error for a bad identifier or operator.
func (b *SelectBuilder) Build() (string, []Value, error) {
	// --- column list ---
	cols := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			q, err := b.quote(c)
			if err != nil {
				return "", nil, err
			}
			quoted[i] = q
		}
		cols = strings.Join(quoted, ", ")
	}

	table, err := b.quote(b.table)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(table)

	var params []Value

	// --- WHERE ---
	if len(b.where) > 0 {
		parts := make([]string, 0, len(b.where))
		for _, w := range b.where {
			op := strings.ToUpper(w.op)
			if !validOps[op] {
				return "", nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported WHERE operator: %q", w.op)
			}
			col, err := b.quote(w.column)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, fmt.Sprintf("%s %s ?", col, op))
			params = append(params, w.value)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	// --- ORDER BY ---
	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			col, err := b.quote(o.column)
			if err != nil {
				return "", nil, err
			}
			dir := "ASC"
			if o.dir == Desc {
				dir = "DESC"
			}
			parts[i] = col + " " + dir
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	// --- LIMIT ---
	if b.limit != nil {
		sb.WriteString(" LIMIT ?")
		params = append(params, Int(int64(*b.limit)))
	}

	// --- OFFSET ---
	if b.offset != nil {
		sb.WriteString(" OFFSET ?")
		params = append(params, Int(int64(*b.offset)))
	}

	return sb.String(), params, nil
}

// quote validates name and wraps it in the dialect's identifier quotes.
func (b *SelectBuilder) quote(name string) (string, error) {
	return QuoteIdent(b.dialect, name)
}

// QuoteIdent wraps a plain identifier in the dialect's quotes: backticks for
// MySQL, double quotes for Postgres. Only [A-Za-z_][A-Za-z0-9_]* is accepted.
func QuoteIdent(d Dialect, name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", errs.Newf(errs.ErrKindInvalidInput, "invalid identifier %q", name)
	}
	if d == DialectPostgres {
		return `"` + name + `"`, nil
	}
	return "`" + name + "`", nil
}
