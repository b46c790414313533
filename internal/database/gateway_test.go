package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/cowclash/internal/errs"
	"github.com/koustreak/cowclash/internal/logger"
)

func newTestGateway(t *testing.T, pool *fakePool, opts ...Option) *Gateway {
	t.Helper()
	g, err := NewWithPool(context.Background(), pool, opts...)
	require.NoError(t, err)
	return g
}

func TestNewWithPool_AcquiresOneConnection(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool)

	assert.True(t, g.IsConnected())
	assert.Equal(t, 1, pool.acquired())
	assert.NotEmpty(t, g.ID())
}

func TestNewWithPool_AcquireFailureClosesPool(t *testing.T) {
	pool := newFakePool()
	pool.acquireErr = errors.New("connection refused")

	g, err := NewWithPool(context.Background(), pool)
	require.Error(t, err)
	assert.Nil(t, g)
	assert.True(t, errs.IsConnectionFailed(err))
	assert.True(t, pool.closed)
}

func TestNew_InvalidConfigNeverOpens(t *testing.T) {
	cfg := DefaultConfig("localhost", "cowclash", "arena", "pw")
	cfg.MinPoolSize = 20

	opened := false
	drv := Driver{
		Name: ProtocolMySQL,
		Open: func(*Config) (*sql.DB, error) {
			opened = true
			return nil, errors.New("unreachable")
		},
	}

	g, err := New(context.Background(), *cfg, drv)
	require.Error(t, err)
	assert.Nil(t, g)
	assert.True(t, errs.IsInvalidInput(err))
	assert.False(t, opened)
}

func TestNew_OpenFailure(t *testing.T) {
	cfg := DefaultConfig("localhost", "cowclash", "arena", "pw")
	drv := Driver{
		Name: ProtocolMySQL,
		Open: func(*Config) (*sql.DB, error) { return nil, errors.New("bad dsn") },
	}

	_, err := New(context.Background(), *cfg, drv)
	require.Error(t, err)
	assert.True(t, errs.IsConnectionFailed(err))
}

func TestNew_MissingDriver(t *testing.T) {
	cfg := DefaultConfig("localhost", "cowclash", "arena", "pw")

	_, err := New(context.Background(), *cfg, Driver{})
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestExecute_PlaceholderMismatchDoesNoIO(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool)
	ctx := context.Background()

	cur, err := g.ExecuteQuery(ctx, "SELECT * FROM kits WHERE name = ? AND owner = ?", Text("archer"))
	require.Error(t, err)
	assert.Nil(t, cur)
	assert.True(t, errs.IsInvalidInput(err))
	assert.Equal(t, OutcomeInvalid, OutcomeOf(err))

	n, err := g.ExecuteUpdate(ctx, "DELETE FROM kits", Text("extra"))
	require.Error(t, err)
	assert.Equal(t, int64(-1), n)
	assert.Equal(t, OutcomeInvalid, OutcomeOf(err))

	assert.Empty(t, pool.conn(0).prepares())
	assert.Equal(t, 1, pool.acquired())
}

func TestExecute_BindsEachVariantInOrder(t *testing.T) {
	pool := newFakePool()
	pool.affected = 1
	g := newTestGateway(t, pool)

	ts := struct{ at string }{"now"}
	n, err := g.ExecuteUpdate(context.Background(),
		"INSERT INTO scores VALUES (?, ?, ?, ?, ?, ?, ?)",
		Text("steve"), Int(42), Double(1.5), Float(2.5), Bool(true), Opaque(ts), Null(),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stmt := pool.conn(0).stmts[0]
	assert.Equal(t, []bindCall{
		{"BindString", 1, "steve"},
		{"BindInt", 2, int64(42)},
		{"BindDouble", 3, 1.5},
		{"BindFloat", 4, float32(2.5)},
		{"BindBool", 5, true},
		{"BindObject", 6, ts},
		{"BindObject", 7, nil},
	}, stmt.binds)
	assert.True(t, stmt.isClosed())
}

func TestExecuteUpdate_ZeroRowsIsSuccess(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool)

	n, err := g.ExecuteUpdate(context.Background(), "DELETE FROM kits WHERE name = ?", Text("ghost"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, OutcomeOK, OutcomeOf(err))
}

func TestExecuteUpdate_ExecFailure(t *testing.T) {
	pool := newFakePool()
	pool.execErr = errors.New("duplicate key")
	g := newTestGateway(t, pool)

	n, err := g.ExecuteUpdate(context.Background(), "INSERT INTO kits VALUES (?)", Text("archer"))
	require.Error(t, err)
	assert.Equal(t, int64(-1), n)
	assert.True(t, errs.IsQueryFailed(err))
	assert.Equal(t, OutcomeFailed, OutcomeOf(err))
	assert.True(t, pool.conn(0).stmts[0].isClosed())
}

func TestExecute_UsesErrorMapper(t *testing.T) {
	pool := newFakePool()
	pool.execErr = errors.New("duplicate key")
	mapper := func(err error, msg string) *errs.Error {
		return errs.Wrap(errs.ErrKindConflict, msg, err)
	}
	g := newTestGateway(t, pool, WithErrorMapper(mapper))

	_, err := g.ExecuteUpdate(context.Background(), "INSERT INTO kits VALUES (?)", Text("archer"))
	assert.True(t, errs.IsConflict(err))
}

func TestExecute_PrepareFailure(t *testing.T) {
	pool := newFakePool()
	pool.prepErr = errors.New("syntax error")
	g := newTestGateway(t, pool)

	cur, err := g.ExecuteQuery(context.Background(), "SELEC 1")
	require.Error(t, err)
	assert.Nil(t, cur)
	assert.Equal(t, OutcomeFailed, OutcomeOf(err))
}

func TestExecute_ContextErrorsAreTimeouts(t *testing.T) {
	pool := newFakePool()
	pool.queryErr = context.DeadlineExceeded
	g := newTestGateway(t, pool)

	_, err := g.ExecuteQuery(context.Background(), "SELECT SLEEP(10)")
	assert.True(t, errs.IsTimeout(err))
}

func TestExecuteQuery_ReturnsCursor(t *testing.T) {
	pool := newFakePool()
	rows := &fakeRows{
		columns: []string{"name", "items"},
		data:    [][]any{{"archer", []byte("[]")}, {"tank", []byte("[]")}},
	}
	pool.rows = rows
	g := newTestGateway(t, pool)

	cur, err := g.ExecuteQuery(context.Background(), "SELECT name, items FROM kits")
	require.NoError(t, err)
	require.NotNil(t, cur)

	var names []string
	for cur.Next() {
		var name, items any
		require.NoError(t, cur.Scan(&name, &items))
		names = append(names, name.(string))
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []string{"archer", "tank"}, names)

	stmt := pool.conn(0).stmts[0]
	assert.False(t, stmt.isClosed())
	require.NoError(t, cur.Close())
	require.NoError(t, cur.Close())
	assert.True(t, stmt.isClosed())
	assert.Equal(t, 1, rows.closes)
}

func TestExecuteQuery_FailureClosesStatement(t *testing.T) {
	pool := newFakePool()
	pool.queryErr = errors.New("table missing")
	g := newTestGateway(t, pool)

	cur, err := g.ExecuteQuery(context.Background(), "SELECT * FROM nope")
	require.Error(t, err)
	assert.Nil(t, cur)
	assert.True(t, pool.conn(0).stmts[0].isClosed())
}

func TestExecute_PostgresDialectRebinds(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool, WithDialect(DialectPostgres))

	_, err := g.ExecuteUpdate(context.Background(),
		"UPDATE kits SET items = ? WHERE name = ?", Text("[]"), Text("archer"))
	require.NoError(t, err)
	assert.Equal(t, []string{"UPDATE kits SET items = $1 WHERE name = $2"}, pool.conn(0).prepares())
}

func TestIsConnected_HasNoSideEffects(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool)

	pool.conn(0).kill()
	assert.False(t, g.IsConnected())
	assert.False(t, g.IsConnected())
	assert.Equal(t, 1, pool.acquired())
}

func TestExecute_ReacquiresExactlyOnceAfterExternalClose(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool)
	ctx := context.Background()

	pool.conn(0).kill()

	for i := 0; i < 3; i++ {
		_, err := g.ExecuteUpdate(ctx, "UPDATE kits SET items = items")
		require.NoError(t, err)
	}

	assert.Equal(t, 2, pool.acquired())
	assert.Empty(t, pool.conn(0).prepares())
	assert.Len(t, pool.conn(1).prepares(), 3)
	assert.True(t, g.IsConnected())
}

func TestExecute_ReacquireFailure(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool)

	pool.conn(0).kill()
	pool.acquireErr = errors.New("too many connections")

	n, err := g.ExecuteUpdate(context.Background(), "DELETE FROM kits")
	require.Error(t, err)
	assert.Equal(t, int64(-1), n)
	assert.True(t, errs.IsConnectionFailed(err))
	assert.Equal(t, OutcomeFailed, OutcomeOf(err))
}

func TestExecute_ConcurrentCallersShareOneConnection(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool)
	pool.conn(0).kill()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.ExecuteUpdate(context.Background(), "UPDATE kits SET items = ?", Text("[]"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, pool.acquired())
}

func twoRowCursor(t *testing.T, g *Gateway) *Cursor {
	t.Helper()
	cur, err := g.ExecuteQuery(context.Background(), "SELECT n FROM kits")
	require.NoError(t, err)
	require.True(t, cur.Next())
	return cur
}

func TestExecute_WaitsForOpenCursor(t *testing.T) {
	pool := newFakePool()
	pool.rows = &fakeRows{columns: []string{"n"}, data: [][]any{{int64(1)}, {int64(2)}}}
	g := newTestGateway(t, pool)
	cur := twoRowCursor(t, g)

	done := make(chan error, 1)
	go func() {
		_, err := g.ExecuteUpdate(context.Background(), "UPDATE kits SET n = ? WHERE n = ?", Int(3), Int(1))
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("update ran while the cursor was open: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, cur.Close())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("update did not run after the cursor was closed")
	}

	conn := pool.conn(0)
	assert.Zero(t, conn.busyRejections())
	assert.Len(t, conn.prepares(), 2)
	assert.Equal(t, 1, pool.acquired())
}

func TestExecute_ConcurrentReadersNeverOverlap(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cur, err := g.ExecuteQuery(context.Background(), "SELECT n FROM kits WHERE n = ?", Int(1))
			if !assert.NoError(t, err) {
				return
			}
			for cur.Next() {
			}
			assert.NoError(t, cur.Close())
		}()
	}
	wg.Wait()

	assert.Zero(t, pool.conn(0).busyRejections())
	assert.Len(t, pool.conn(0).prepares(), 16)
}

func TestExecute_GivesUpWaitingWhenContextEnds(t *testing.T) {
	pool := newFakePool()
	pool.rows = &fakeRows{columns: []string{"n"}, data: [][]any{{int64(1)}, {int64(2)}}}
	g := newTestGateway(t, pool)
	cur := twoRowCursor(t, g)
	defer cur.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.ExecuteQuery(ctx, "SELECT n FROM kits WHERE n = ?", Int(1))
	require.Error(t, err)
	assert.True(t, errs.IsTimeout(err))
	assert.Len(t, pool.conn(0).prepares(), 1)
	assert.Zero(t, pool.conn(0).busyRejections())
}

func TestDisconnect_DoesNotHangOnOpenCursor(t *testing.T) {
	pool := newFakePool()
	pool.rows = &fakeRows{columns: []string{"n"}, data: [][]any{{int64(1)}, {int64(2)}}}
	g := newTestGateway(t, pool, WithCloseWait(20*time.Millisecond))
	cur := twoRowCursor(t, g)

	done := make(chan error, 1)
	go func() { done <- g.Disconnect() }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errs.IsConnectionFailed(err))
	case <-time.After(time.Second):
		t.Fatal("Disconnect blocked on an open cursor")
	}
	assert.False(t, g.IsConnected())
	assert.Equal(t, []string{"pool.acquire"}, pool.rec.list())

	require.NoError(t, cur.Close())
	require.Eventually(t, func() bool { return len(pool.rec.list()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"pool.acquire", "conn.close", "pool.close"}, pool.rec.list())
	assert.True(t, errs.IsClosed(g.Disconnect()))
}

func TestDisconnect_QueuedCallersSeeClosed(t *testing.T) {
	pool := newFakePool()
	pool.rows = &fakeRows{columns: []string{"n"}, data: [][]any{{int64(1)}, {int64(2)}}}
	g := newTestGateway(t, pool, WithCloseWait(time.Second))
	cur := twoRowCursor(t, g)

	queued := make(chan error, 1)
	go func() {
		_, err := g.ExecuteUpdate(context.Background(), "DELETE FROM kits")
		queued <- err
	}()
	disconnected := make(chan error, 1)
	go func() { disconnected <- g.Disconnect() }()

	require.Eventually(t, func() bool { return !g.IsConnected() }, time.Second, time.Millisecond)
	require.NoError(t, cur.Close())

	require.NoError(t, <-disconnected)
	select {
	case err := <-queued:
		assert.True(t, errs.IsClosed(err))
	case <-time.After(time.Second):
		t.Fatal("queued update never returned")
	}
	assert.Len(t, pool.conn(0).prepares(), 1)
}

func TestDisconnect_ClosesConnectionThenPool(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool)

	require.NoError(t, g.Disconnect())
	assert.Equal(t, []string{"pool.acquire", "conn.close", "pool.close"}, pool.rec.list())
	assert.False(t, g.IsConnected())
}

func TestDisconnect_SkipsClosedConnection(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool)
	pool.conn(0).kill()

	require.NoError(t, g.Disconnect())
	assert.Equal(t, []string{"pool.acquire", "pool.close"}, pool.rec.list())
}

func TestDisconnect_IsTerminal(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool)
	ctx := context.Background()

	require.NoError(t, g.Disconnect())

	err := g.Disconnect()
	assert.True(t, errs.IsClosed(err))

	_, err = g.ExecuteQuery(ctx, "SELECT 1")
	assert.True(t, errs.IsClosed(err))
	n, err := g.ExecuteUpdate(ctx, "DELETE FROM kits")
	assert.Equal(t, int64(-1), n)
	assert.True(t, errs.IsClosed(err))

	assert.Equal(t, 1, pool.acquired())
}

func TestDisconnect_ReportsCloseFailures(t *testing.T) {
	pool := newFakePool()
	pool.closeConn = errors.New("conn close failed")
	pool.closeErr = errors.New("pool close failed")
	g := newTestGateway(t, pool)

	err := g.Disconnect()
	require.Error(t, err)
	assert.True(t, errs.IsConnectionFailed(err))
	assert.Contains(t, err.Error(), "conn close failed")
	assert.Contains(t, err.Error(), "pool close failed")
	assert.True(t, pool.closed)
}

func TestZeroGateway_DoesNotPanic(t *testing.T) {
	var g Gateway

	assert.False(t, g.IsConnected())
	n, err := g.ExecuteUpdate(context.Background(), "DELETE FROM kits")
	assert.Equal(t, int64(-1), n)
	assert.True(t, errs.IsConnectionFailed(err))
	assert.Equal(t, PoolStats{}, g.Stats())
	assert.NoError(t, g.Disconnect())
}

func TestGateway_LogsFailuresWithGatewayID(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(&logger.Config{Level: "debug", Format: "json", Output: buf})
	pool := newFakePool()
	g := newTestGateway(t, pool, WithLogger(log))

	_, err := g.ExecuteQuery(context.Background(), "SELECT ? FROM kits")
	require.Error(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, g.ID(), entry["gateway_id"])
	assert.Equal(t, "SELECT ? FROM kits", entry["query"])
	assert.EqualValues(t, 1, entry["placeholders"])
	assert.EqualValues(t, 0, entry["params"])
}

func TestGateway_Stats(t *testing.T) {
	pool := newFakePool()
	g := newTestGateway(t, pool)

	st := g.Stats()
	assert.Equal(t, 10, st.MaxOpen)
	assert.Equal(t, 1, st.Open)
}
