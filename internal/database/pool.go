package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync/atomic"
)

// SQLPool adapts *sql.DB to Pool.
// It is safe for concurrent use by multiple goroutines.
type SQLPool struct {
	db        *sql.DB
	isBadConn func(error) bool
}

// NewSQLPool wraps db. isBadConn may be nil.
func NewSQLPool(db *sql.DB, isBadConn func(error) bool) *SQLPool {
	return &SQLPool{db: db, isBadConn: isBadConn}
}

// applyPoolSizing copies the pool bounds and lifetimes from cfg onto db.
func applyPoolSizing(db *sql.DB, cfg *Config) {
	db.SetMaxOpenConns(cfg.MaxPoolSize)
	db.SetMaxIdleConns(cfg.MinPoolSize)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

// Acquire checks out a dedicated connection. database/sql dials here if no
// idle connection is available, so this is where connectivity errors surface.
func (p *SQLPool) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlConn{inner: c, isBadConn: p.isBadConn}, nil
}

func (p *SQLPool) Stats() PoolStats {
	s := p.db.Stats()
	return PoolStats{
		MaxOpen:      s.MaxOpenConnections,
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
	}
}

func (p *SQLPool) Close() error {
	return p.db.Close()
}

// --- sqlConn wraps *sql.Conn ---

type sqlConn struct {
	inner     *sql.Conn
	isBadConn func(error) bool
	closed    atomic.Bool
}

func (c *sqlConn) Prepare(ctx context.Context, query string) (Statement, error) {
	st, err := c.inner.PrepareContext(ctx, query)
	if err != nil {
		c.observe(err)
		return nil, err
	}
	return &sqlStatement{stmt: st, owner: c}, nil
}

func (c *sqlConn) IsClosed() bool {
	return c.closed.Load()
}

func (c *sqlConn) Close() error {
	if c.closed.Swap(true) {
		// Already marked broken; the handle still has to go back to the pool.
		err := c.inner.Close()
		if errors.Is(err, sql.ErrConnDone) {
			return nil
		}
		return err
	}
	return c.inner.Close()
}

// observe marks the connection closed when err says it can no longer be used.
func (c *sqlConn) observe(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		(c.isBadConn != nil && c.isBadConn(err)) {
		c.closed.Store(true)
	}
}

// --- sqlStatement wraps *sql.Stmt ---

type sqlStatement struct {
	stmt  *sql.Stmt
	owner *sqlConn
	args  []any
}

func (s *sqlStatement) set(pos int, v any) {
	for len(s.args) < pos {
		s.args = append(s.args, nil)
	}
	s.args[pos-1] = v
}

func (s *sqlStatement) BindString(pos int, v string)  { s.set(pos, v) }
func (s *sqlStatement) BindInt(pos int, v int64)      { s.set(pos, v) }
func (s *sqlStatement) BindDouble(pos int, v float64) { s.set(pos, v) }
func (s *sqlStatement) BindFloat(pos int, v float32)  { s.set(pos, v) }
func (s *sqlStatement) BindBool(pos int, v bool)      { s.set(pos, v) }
func (s *sqlStatement) BindObject(pos int, v any)     { s.set(pos, v) }

func (s *sqlStatement) Query(ctx context.Context) (Rows, error) {
	rows, err := s.stmt.QueryContext(ctx, s.args...)
	if err != nil {
		s.owner.observe(err)
		return nil, err
	}
	return rows, nil
}

func (s *sqlStatement) Exec(ctx context.Context) (int64, error) {
	res, err := s.stmt.ExecContext(ctx, s.args...)
	if err != nil {
		s.owner.observe(err)
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sqlStatement) Close() error {
	return s.stmt.Close()
}
