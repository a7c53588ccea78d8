// Package tracing provides OpenTelemetry spans for the relay pipeline stages.
// Without a configured TracerProvider the global noop provider is used.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "osrs-bluesky-bot"

// GetTracer returns the tracer for creating spans. It is resolved on every
// call so that a provider installed after package init is honored.
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartStage starts a span named "relay.<stage>".
//
// Example usage:
//
//	ctx, span := tracing.StartStage(ctx, "detect", attribute.String("feed.url", url))
//	defer span.End()
func StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "relay."+stage, trace.WithAttributes(attrs...))
}

// EndStage records err on span, if any, and ends it.
func EndStage(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
