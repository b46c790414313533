package database

import (
	"strconv"
	"strings"
)

// CountPlaceholders returns the number of positional `?` markers in query.
// Markers inside quoted literals, quoted identifiers and comments are not
// placeholders and are skipped. `#` starts a comment only for MySQL.
func CountPlaceholders(d Dialect, query string) int {
	n := 0
	scanPlaceholders(d, query, func(int) { n++ })
	return n
}

// Rebind rewrites `?` markers into the dialect's native form.
// MySQL queries are returned unchanged.
func Rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	last, idx := 0, 0
	scanPlaceholders(d, query, func(pos int) {
		idx++
		sb.WriteString(query[last:pos])
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(idx))
		last = pos + 1
	})
	sb.WriteString(query[last:])
	return sb.String()
}

// scanPlaceholders calls fn with the byte offset of every placeholder.
func scanPlaceholders(d Dialect, query string, fn func(pos int)) {
	n := len(query)
	for i := 0; i < n; i++ {
		switch c := query[i]; {
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(query, i, c)
		case c == '-' && i+1 < n && query[i+1] == '-':
			i = skipUntil(query, i+2, "\n")
		case c == '#' && d == DialectMySQL:
			i = skipUntil(query, i+1, "\n")
		case c == '/' && i+1 < n && query[i+1] == '*':
			i = skipUntil(query, i+2, "*/")
		case c == '?':
			fn(i)
		}
	}
}

// skipQuoted returns the offset of the quote closing the literal opened at start.
// Doubled quotes and backslash escapes stay inside the literal.
func skipQuoted(query string, start int, quote byte) int {
	for j := start + 1; j < len(query); j++ {
		switch query[j] {
		case '\\':
			if quote != '`' {
				j++
			}
		case quote:
			if j+1 < len(query) && query[j+1] == quote {
				j++
				continue
			}
			return j
		}
	}
	return len(query) - 1
}

// skipUntil returns the offset of the last byte of the first end marker at or
// after from, or the end of query when there is none.
func skipUntil(query string, from int, end string) int {
	if from >= len(query) {
		return len(query) - 1
	}
	idx := strings.Index(query[from:], end)
	if idx < 0 {
		return len(query) - 1
	}
	return from + idx + len(end) - 1
}
