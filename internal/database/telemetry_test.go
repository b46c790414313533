package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]string {
	out := make(map[attribute.Key]string)
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value.Emit()
	}
	return out
}

func TestTelemetry_SpanPerCall(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	pool := newFakePool()
	g := newTestGateway(t, pool, WithTracerProvider(tp), WithSystem("mysql"))

	_, err := g.ExecuteUpdate(context.Background(), "DELETE FROM kits WHERE name = ?", Text("archer"))
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "cowclash.update", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "mysql", attrs["db.system"])
	assert.Equal(t, "update", attrs["db.operation"])
	assert.Equal(t, "DELETE FROM kits WHERE name = ?", attrs["db.statement"])
}

func TestTelemetry_ErrorStatus(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	pool := newFakePool()
	pool.queryErr = errors.New("table missing")
	g := newTestGateway(t, pool, WithTracerProvider(tp))

	_, err := g.ExecuteQuery(context.Background(), "SELECT * FROM nope")
	require.Error(t, err)

	_, err = g.ExecuteQuery(context.Background(), "SELECT ?")
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	for _, s := range spans {
		assert.Equal(t, "cowclash.query", s.Name())
		assert.Equal(t, codes.Error, s.Status().Code)
		assert.NotEmpty(t, s.Events(), "error should be recorded as an event")
	}
}
