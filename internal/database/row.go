package database

import (
	"errors"
	"sync"

	"github.com/koustreak/cowclash/internal/errs"
)

// Cursor is the result set returned by ExecuteQuery. Closing it also closes
// the statement that produced it and hands the connection back to the Gateway.
type Cursor struct {
	rows    Rows
	stmt    Statement
	release func()

	once     sync.Once
	closeErr error
}

func (c *Cursor) Next() bool                 { return c.rows.Next() }
func (c *Cursor) Scan(dest ...any) error     { return c.rows.Scan(dest...) }
func (c *Cursor) Columns() ([]string, error) { return c.rows.Columns() }
func (c *Cursor) Err() error                 { return c.rows.Err() }

// Close releases the rows and then the statement. Safe to call more than once.
func (c *Cursor) Close() error {
	c.once.Do(func() {
		c.closeErr = errors.Join(c.rows.Close(), c.stmt.Close())
		if c.release != nil {
			c.release()
		}
	})
	return c.closeErr
}

// ScanRows reads all rows from the result set and returns them as a slice
// of maps, where each key is the column name and each value is the Go-native
// representation of the DB value ([]byte is returned as string).
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes the Rows.
func ScanRows(rows Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	result := make([]map[string]any, 0)

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := dest[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = dest[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}

	return result, nil
}
