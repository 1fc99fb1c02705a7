package ygggo_mysql_pool

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName    = "github.com/yggai/ygggo_mysql_pool"
	instrumentationVersion = "v0.1.0"
)

var tracer = otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(instrumentationVersion))

// EnableTelemetry enables or disables OpenTelemetry tracing for this manager.
func (m *PoolManager) EnableTelemetry(enabled bool) {
	if m == nil {
		return
	}
	m.telemetryEnabled = enabled
}

// startSpan creates a new span with common pool attributes.
func (m *PoolManager) startSpan(ctx context.Context, operation string, key TargetKey) (context.Context, trace.Span) {
	if m == nil || !m.telemetryEnabled {
		return ctx, trace.SpanFromContext(ctx)
	}

	spanName := fmt.Sprintf("ygggo_mysql_pool.%s", operation)
	ctx, span := tracer.Start(ctx, spanName)
	span.SetAttributes(
		attribute.String("db.system", "mysql"),
		attribute.String("db.operation", operation),
		attribute.String("pool.target", key.String()),
	)
	return ctx, span
}

// finishSpan completes a span with error handling.
func (m *PoolManager) finishSpan(span trace.Span, err error) {
	if m == nil || !m.telemetryEnabled {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
