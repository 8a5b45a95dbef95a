package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartRunSpan starts the root span for a shaping or policing run.
func StartRunSpan(ctx context.Context, tracer trace.Tracer, verb string, peakRate, sustainedRate, burstSize int64) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, verb+" run",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.Int64("stampede.peak_rate", peakRate),
		attribute.Int64("stampede.sustained_rate", sustainedRate),
		attribute.Int64("stampede.burst_size", burstSize),
	)
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
