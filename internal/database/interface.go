// Package database implements the pooled database gateway.
//
// A Gateway owns a connection pool and one active connection. Callers only
// see ExecuteQuery, ExecuteUpdate, IsConnected and Disconnect; the pool and
// the connection stay private. Everything below the Gateway is expressed as
// small interfaces (Pool, Conn, Statement, Rows) so driver adapters and test
// doubles can plug in without touching the gateway logic.
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/koustreak/cowclash/internal/errs"
)

// Pool is a bounded set of live connections.
// Implementations must allow concurrent Acquire calls.
type Pool interface {
	// Acquire checks out one connection. It blocks while the pool is exhausted.
	Acquire(ctx context.Context) (Conn, error)

	// Stats reports the current pool occupancy.
	Stats() PoolStats

	// Close releases every connection held by the pool.
	Close() error
}

// Conn is a single checked-out connection.
type Conn interface {
	// Prepare creates a statement bound to this connection.
	Prepare(ctx context.Context, query string) (Statement, error)

	// IsClosed reports whether the connection was closed or found broken.
	// It must not perform I/O.
	IsClosed() bool

	// Close returns the connection to its pool.
	Close() error
}

// Binder receives parameter values by 1-based position.
type Binder interface {
	BindString(pos int, v string)
	BindInt(pos int, v int64)
	BindDouble(pos int, v float64)
	BindFloat(pos int, v float32)
	BindBool(pos int, v bool)
	BindObject(pos int, v any)
}

// Statement is a parameterized query prepared on one connection.
// It is used for a single call and then closed.
type Statement interface {
	Binder

	// Query runs the statement as a read and returns its cursor.
	Query(ctx context.Context) (Rows, error)

	// Exec runs the statement as a write and returns the affected row count.
	Exec(ctx context.Context) (int64, error)

	Close() error
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close() error

	// Err returns any error encountered during iteration.
	Err() error
}

// PoolStats is a snapshot of pool occupancy.
type PoolStats struct {
	MaxOpen      int           `json:"max_open"`
	Open         int           `json:"open"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
}

// Dialect controls how `?` placeholders and identifiers are written on the wire.
type Dialect int

const (
	// DialectMySQL uses ? placeholders and `backtick` identifiers.
	DialectMySQL Dialect = iota

	// DialectPostgres uses $1, $2, … placeholders and "double-quoted" identifiers.
	DialectPostgres
)

// Driver bundles what the Gateway needs from one database engine.
// Adapter packages (mysql, postgres) each expose one.
type Driver struct {
	Name    Protocol
	Dialect Dialect

	// Open builds the *sql.DB for cfg without dialing.
	Open func(cfg *Config) (*sql.DB, error)

	// MapError classifies a native driver error.
	MapError func(err error, msg string) *errs.Error

	// IsBadConn reports whether err means the connection is unusable.
	// Optional; the database/sql sentinels are always checked.
	IsBadConn func(err error) bool
}
