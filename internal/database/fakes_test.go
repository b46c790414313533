package database

import (
	"context"
	"errors"
	"io"
	"sync"
)

// recorder collects lifecycle events in call order across doubles.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakePool struct {
	rec *recorder

	mu         sync.Mutex
	conns      []*fakeConn
	acquireErr error
	closeErr   error
	closed     bool

	// template copied into every new connection
	affected  int64
	execErr   error
	queryErr  error
	prepErr   error
	closeConn error
	rows      *fakeRows
}

func newFakePool() *fakePool {
	return &fakePool{rec: &recorder{}}
}

func (p *fakePool) Acquire(ctx context.Context) (Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rec.add("pool.acquire")
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	c := &fakeConn{
		id:       len(p.conns) + 1,
		rec:      p.rec,
		affected: p.affected,
		execErr:  p.execErr,
		queryErr: p.queryErr,
		prepErr:  p.prepErr,
		closeErr: p.closeConn,
		rows:     p.rows,
	}
	p.conns = append(p.conns, c)
	return c, nil
}

func (p *fakePool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{MaxOpen: 10, Open: len(p.conns), InUse: len(p.conns)}
}

func (p *fakePool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rec.add("pool.close")
	p.closed = true
	return p.closeErr
}

func (p *fakePool) acquired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

func (p *fakePool) conn(i int) *fakeConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conns[i]
}

// errConnBusy is what a single-connection protocol reports when a new
// statement arrives while a result set is still being read.
var errConnBusy = errors.New("conn busy")

type fakeConn struct {
	id  int
	rec *recorder

	mu       sync.Mutex
	closed   bool
	prepared []string
	stmts    []*fakeStmt
	openRows int
	busy     int

	affected int64
	execErr  error
	queryErr error
	prepErr  error
	closeErr error
	rows     *fakeRows
}

func (c *fakeConn) Prepare(ctx context.Context, query string) (Statement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openRows > 0 {
		c.busy++
		return nil, errConnBusy
	}
	c.prepared = append(c.prepared, query)
	if c.prepErr != nil {
		return nil, c.prepErr
	}
	s := &fakeStmt{conn: c}
	c.stmts = append(c.stmts, s)
	return s, nil
}

func (c *fakeConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rec.add("conn.close")
	c.closed = true
	return c.closeErr
}

// kill simulates the server dropping the connection.
func (c *fakeConn) kill() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// busyRejections counts statements refused because rows were still open.
func (c *fakeConn) busyRejections() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *fakeConn) prepares() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prepared...)
}

type bindCall struct {
	method string
	pos    int
	value  any
}

type fakeStmt struct {
	conn *fakeConn

	mu     sync.Mutex
	binds  []bindCall
	closed bool
}

func (s *fakeStmt) record(method string, pos int, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binds = append(s.binds, bindCall{method, pos, v})
}

func (s *fakeStmt) BindString(pos int, v string)  { s.record("BindString", pos, v) }
func (s *fakeStmt) BindInt(pos int, v int64)      { s.record("BindInt", pos, v) }
func (s *fakeStmt) BindDouble(pos int, v float64) { s.record("BindDouble", pos, v) }
func (s *fakeStmt) BindFloat(pos int, v float32)  { s.record("BindFloat", pos, v) }
func (s *fakeStmt) BindBool(pos int, v bool)      { s.record("BindBool", pos, v) }
func (s *fakeStmt) BindObject(pos int, v any)     { s.record("BindObject", pos, v) }

func (s *fakeStmt) Query(ctx context.Context) (Rows, error) {
	if s.conn.queryErr != nil {
		return nil, s.conn.queryErr
	}
	var rows Rows = &fakeRows{}
	if s.conn.rows != nil {
		rows = s.conn.rows
	}
	s.conn.mu.Lock()
	s.conn.openRows++
	s.conn.mu.Unlock()
	return &inFlightRows{Rows: rows, conn: s.conn}, nil
}

// inFlightRows keeps its connection busy until closed.
type inFlightRows struct {
	Rows
	conn *fakeConn
	once sync.Once
}

func (r *inFlightRows) Close() error {
	err := r.Rows.Close()
	r.once.Do(func() {
		r.conn.mu.Lock()
		r.conn.openRows--
		r.conn.mu.Unlock()
	})
	return err
}

func (s *fakeStmt) Exec(ctx context.Context) (int64, error) {
	if s.conn.execErr != nil {
		return 0, s.conn.execErr
	}
	return s.conn.affected, nil
}

func (s *fakeStmt) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStmt) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeRows struct {
	columns []string
	data    [][]any
	idx     int
	colErr  error
	iterErr error
	closes  int
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.data) {
		return io.EOF
	}
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		p, ok := d.(*any)
		if !ok {
			return errors.New("unsupported scan target")
		}
		*p = row[i]
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.columns, r.colErr }
func (r *fakeRows) Err() error                 { return r.iterErr }

func (r *fakeRows) Close() error {
	r.closes++
	return nil
}
