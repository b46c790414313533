package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/koustreak/cowclash/internal/errs"
	"github.com/koustreak/cowclash/internal/logger"
)

type gatewayState int

const (
	stateUninitialized gatewayState = iota
	stateConnected
	stateDisconnected
)

// defaultCloseWait bounds how long Disconnect waits for an open cursor.
const defaultCloseWait = 5 * time.Second

// Gateway executes parameterized statements over one pooled connection.
//
// The active connection is replaced lazily: a connection found closed or
// broken is swapped for a fresh one on the next call, never proactively.
// Each call holds the active connection exclusively, from prepare until the
// update finishes or the returned Cursor is closed; concurrent callers wait
// their turn or give up when their context ends. Once disconnected the
// Gateway is terminal.
type Gateway struct {
	id        string
	pool      Pool
	system    string
	dialect   Dialect
	mapErr    func(err error, msg string) *errs.Error
	log       *logger.Logger
	tracer    trace.Tracer
	closeWait time.Duration

	// lease has capacity one; holding its slot means owning the active
	// connection for one statement.
	lease chan struct{}

	mu     sync.Mutex
	active Conn
	state  gatewayState
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger diagnostics are written to.
func WithLogger(l *logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

// WithTracerProvider sets the OpenTelemetry provider spans are created from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Gateway) {
		if tp != nil {
			g.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// WithDialect sets the placeholder dialect used on the wire.
func WithDialect(d Dialect) Option {
	return func(g *Gateway) { g.dialect = d }
}

// WithErrorMapper sets the classifier for native driver errors.
func WithErrorMapper(fn func(err error, msg string) *errs.Error) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.mapErr = fn
		}
	}
}

// WithCloseWait bounds how long Disconnect waits for an open cursor to be
// closed before it gives up and leaves the release to that cursor.
func WithCloseWait(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.closeWait = d
		}
	}
}

// WithSystem sets the db.system reported on spans.
func WithSystem(name string) Option {
	return func(g *Gateway) { g.system = name }
}

// New validates cfg, opens the pool through drv and acquires the first
// connection. Any failure is fatal: whatever was opened is closed again and
// an errs.ErrKindConnectionFailed (or ErrKindInvalidInput for cfg) is returned.
func New(ctx context.Context, cfg Config, drv Driver, opts ...Option) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if drv.Open == nil {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "no driver for protocol %q", cfg.Protocol)
	}

	db, err := drv.Open(&cfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create connection pool", err)
	}
	applyPoolSizing(db, &cfg)

	base := []Option{
		WithSystem(string(drv.Name)),
		WithDialect(drv.Dialect),
		WithErrorMapper(drv.MapError),
	}
	g, err := NewWithPool(ctx, NewSQLPool(db, drv.IsBadConn), append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	g.logger().InfoWith("gateway connected", map[string]interface{}{
		"url":           cfg.URL(),
		"min_pool_size": cfg.MinPoolSize,
		"max_pool_size": cfg.MaxPoolSize,
	})
	return g, nil
}

// NewWithPool builds a Gateway over an existing pool and acquires the first
// connection from it. On failure the pool is closed.
func NewWithPool(ctx context.Context, pool Pool, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		id:        uuid.NewString(),
		pool:      pool,
		system:    "sql",
		mapErr:    defaultMapError,
		log:       logger.Nop(),
		tracer:    otel.GetTracerProvider().Tracer(instrumentationName),
		closeWait: defaultCloseWait,
		lease:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With().Str("gateway_id", g.id).Logger()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		_ = pool.Close()
		g.logger().ErrorWith("initial connection failed", err, nil)
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to acquire initial connection", err)
	}
	g.active = conn
	g.state = stateConnected
	return g, nil
}

// ID returns the instance identifier carried on log lines.
func (g *Gateway) ID() string { return g.id }

// Dialect returns the placeholder dialect used on the wire.
func (g *Gateway) Dialect() Dialect { return g.dialect }

// IsConnected reports whether an active connection exists and has not been
// closed. It never dials.
func (g *Gateway) IsConnected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectedLocked()
}

func (g *Gateway) logger() *logger.Logger {
	if g.log == nil {
		return logger.Nop()
	}
	return g.log
}

func (g *Gateway) connectedLocked() bool {
	return g.active != nil && !g.active.IsClosed()
}

// Stats reports the pool occupancy.
func (g *Gateway) Stats() PoolStats {
	if g.pool == nil {
		return PoolStats{}
	}
	return g.pool.Stats()
}

// conn returns the active connection, acquiring a fresh one first when the
// current one is missing or closed.
func (g *Gateway) conn(ctx context.Context) (Conn, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case stateDisconnected:
		return nil, errs.New(errs.ErrKindClosed, "gateway is disconnected")
	case stateUninitialized:
		return nil, errs.New(errs.ErrKindConnectionFailed, "gateway was not constructed with New")
	}
	if g.connectedLocked() {
		return g.active, nil
	}

	fresh, err := g.pool.Acquire(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to acquire connection", err)
	}
	if g.active != nil {
		_ = g.active.Close()
	}
	g.active = fresh
	g.logger().Warn("replaced closed connection")
	return fresh, nil
}

// ExecuteQuery runs query as a read with params bound in order.
//
// The error is an *errs.Error: ErrKindInvalidInput when the placeholder count
// does not match len(params) (no I/O happened), any other kind when the
// database was contacted and failed. The cursor must be closed by the caller;
// until then the active connection stays reserved for it, so a second call
// from the goroutine iterating the cursor waits until its context ends.
func (g *Gateway) ExecuteQuery(ctx context.Context, query string, params ...Value) (*Cursor, error) {
	ctx, span := g.startSpan(ctx, "query", query)

	stmt, err := g.prepare(ctx, query, params)
	if err != nil {
		g.finishSpan(span, err)
		return nil, err
	}

	rows, err := stmt.Query(ctx)
	if err != nil {
		_ = stmt.Close()
		g.release()
		err = g.failed(query, params, err)
		g.finishSpan(span, err)
		return nil, err
	}

	g.finishSpan(span, nil)
	return &Cursor{rows: rows, stmt: stmt, release: g.release}, nil
}

// ExecuteUpdate runs query as a write with params bound in order and returns
// the number of affected rows. On any error the count is -1; use the error's
// kind (or OutcomeOf) to tell a rejected call from a failed one.
func (g *Gateway) ExecuteUpdate(ctx context.Context, query string, params ...Value) (int64, error) {
	ctx, span := g.startSpan(ctx, "update", query)

	stmt, err := g.prepare(ctx, query, params)
	if err != nil {
		g.finishSpan(span, err)
		return -1, err
	}
	defer g.release()
	defer stmt.Close()

	n, err := stmt.Exec(ctx)
	if err != nil {
		err = g.failed(query, params, err)
		g.finishSpan(span, err)
		return -1, err
	}

	g.finishSpan(span, nil)
	return n, nil
}

// prepare validates the placeholder count, reserves the active connection,
// then prepares and binds the statement on it. On success the caller owns the
// reservation and must call release once the statement is done.
func (g *Gateway) prepare(ctx context.Context, query string, params []Value) (Statement, error) {
	if want := CountPlaceholders(g.dialect, query); want != len(params) {
		g.logger().ErrorWith("placeholder count did not match parameter count", nil, map[string]interface{}{
			"query":        query,
			"placeholders": want,
			"params":       len(params),
		})
		return nil, errs.Newf(errs.ErrKindInvalidInput,
			"query has %d placeholders but %d parameters were supplied", want, len(params))
	}

	if err := g.reserve(ctx); err != nil {
		g.logger().ErrorWith("no usable connection", err, map[string]interface{}{"query": query})
		return nil, err
	}

	conn, err := g.conn(ctx)
	if err != nil {
		g.release()
		g.logger().ErrorWith("no usable connection", err, map[string]interface{}{"query": query})
		return nil, err
	}

	stmt, err := conn.Prepare(ctx, Rebind(g.dialect, query))
	if err != nil {
		g.release()
		return nil, g.failed(query, params, err)
	}
	for i, p := range params {
		p.Bind(stmt, i+1)
	}
	return stmt, nil
}

// reserve waits for exclusive use of the active connection.
func (g *Gateway) reserve(ctx context.Context) error {
	if g.lease == nil {
		return errs.New(errs.ErrKindConnectionFailed, "gateway was not constructed with New")
	}
	select {
	case g.lease <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errs.Wrap(errs.ErrKindTimeout, "timed out waiting for the active connection", ctx.Err())
	}
}

func (g *Gateway) release() {
	<-g.lease
}

// failed logs an execution failure and classifies it.
func (g *Gateway) failed(query string, params []Value, err error) error {
	g.logger().ErrorWith("query execution failed", err, map[string]interface{}{
		"query":  query,
		"params": len(params),
	})
	if g.mapErr == nil {
		return defaultMapError(err, "query execution failed")
	}
	return g.mapErr(err, "query execution failed")
}

// Disconnect closes the active connection (if any) and then the pool.
// Close failures are returned as errs.ErrKindConnectionFailed. The Gateway
// cannot be reused afterwards; a second call returns errs.ErrKindClosed.
//
// A Cursor still open after the close wait (WithCloseWait) makes Disconnect
// return errs.ErrKindConnectionFailed; the connection and pool are then
// closed, in the same order, when that cursor is closed.
func (g *Gateway) Disconnect() error {
	g.mu.Lock()
	if g.state == stateDisconnected {
		g.mu.Unlock()
		return errs.New(errs.ErrKindClosed, "gateway is already disconnected")
	}
	g.state = stateDisconnected
	active := g.active
	g.active = nil
	g.mu.Unlock()

	if g.lease == nil {
		return g.closeResources(active)
	}

	wait := time.NewTimer(g.closeWait)
	defer wait.Stop()
	select {
	case g.lease <- struct{}{}:
		defer g.release()
		return g.closeResources(active)
	case <-wait.C:
	}

	go func() {
		g.lease <- struct{}{}
		defer g.release()
		_ = g.closeResources(active)
	}()
	g.logger().Warn("disconnect is waiting for an open cursor")
	return errs.Newf(errs.ErrKindConnectionFailed,
		"an open cursor kept the connection busy for %s; it is closed when the cursor is", g.closeWait)
}

// closeResources closes conn (if still usable) and then the pool. The caller
// owns the connection reservation; releasing it afterwards lets queued calls
// observe the disconnected state.
func (g *Gateway) closeResources(conn Conn) error {
	var connErr, poolErr error
	if conn != nil && !conn.IsClosed() {
		connErr = conn.Close()
	}
	if g.pool != nil {
		poolErr = g.pool.Close()
	}

	if err := errors.Join(connErr, poolErr); err != nil {
		g.logger().ErrorWith("disconnect failed", err, nil)
		return errs.Wrap(errs.ErrKindConnectionFailed, "failed to close database resources", err)
	}
	g.logger().Info("gateway disconnected")
	return nil
}

// defaultMapError is used when no driver classifier was supplied.
func defaultMapError(err error, msg string) *errs.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
