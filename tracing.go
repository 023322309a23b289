package swimcore

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer reads whatever TracerProvider the process installed via
// otel.SetTracerProvider. With no provider set, this is a no-op tracer, so
// a Node never pays for tracing it wasn't asked to do.
var tracer = otel.Tracer("swimcore")

// startSpan opens a span for one Tick-driven operation and returns a
// closer that records err (if any) and ends the span.
func startSpan(ctx context.Context, self Address, name string) (context.Context, func(err error)) {
	spanCtx, span := tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("swimcore.self", self.String()),
	))
	return spanCtx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
