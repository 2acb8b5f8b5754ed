package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ewinston/qiskit-terra/qobj"
	"github.com/ewinston/qiskit-terra/result"
)

// tracerName is the instrumentation scope name for execution tracing.
const tracerName = "github.com/ewinston/qiskit-terra"

// Tracing returns middleware that wraps unit execution in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a
// pass-through with zero overhead.
//
// Span attributes include: terra.qobj.id and terra.backend. On error,
// the span status is set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided
// tracer. This variant allows injecting a specific TracerProvider for
// testing or when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, u *qobj.Qobj, next Handler) (*result.Result, error) {
		ctx, span := tracer.Start(ctx, "terra.execution.run",
			trace.WithAttributes(
				attribute.String("terra.qobj.id", u.ID().String()),
				attribute.String("terra.backend", u.BackendName()),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		res, err := next(ctx, u)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return res, err
	}
}
