package database

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/koustreak/cowclash/internal/database"

// startSpan opens a client span for one gateway call.
func (g *Gateway) startSpan(ctx context.Context, operation, query string) (context.Context, trace.Span) {
	tr := g.tracer
	if tr == nil {
		tr = otel.Tracer(instrumentationName)
	}
	ctx, span := tr.Start(ctx, "cowclash."+operation, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", g.system),
		attribute.String("db.operation", operation),
		attribute.String("db.statement", query),
	)
	return ctx, span
}

// finishSpan records err (if any) and ends span.
func (g *Gateway) finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
