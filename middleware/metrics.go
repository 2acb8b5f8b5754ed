package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ewinston/qiskit-terra/qobj"
	"github.com/ewinston/qiskit-terra/result"
)

// meterName is the instrumentation scope name for execution metrics.
const meterName = "github.com/ewinston/qiskit-terra"

// Metrics returns middleware that records per-execution metrics using
// the global OTel MeterProvider. If no MeterProvider is configured,
// noop instruments are used and this middleware becomes a
// pass-through.
//
// Instruments:
//   - terra.execution.duration (Float64Histogram): execution time in
//     seconds, with attributes: backend, status ("ok" or "error")
//   - terra.execution.count (Int64Counter): total executions,
//     with attributes: backend, status ("ok" or "error")
func Metrics() Middleware {
	meter := otel.Meter(meterName)
	return MetricsWithMeter(meter)
}

// MetricsWithMeter returns metrics middleware using the provided
// meter. This variant allows injecting a specific MeterProvider for
// testing.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// Create instruments once at middleware construction time.
	// OTel instruments are safe for concurrent use. On error, the API
	// returns noop instruments so the middleware degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"terra.execution.duration",
		metric.WithDescription("Duration of unit execution in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	executions, eErr := meter.Int64Counter(
		"terra.execution.count",
		metric.WithDescription("Total number of unit executions"),
		metric.WithUnit("{execution}"),
	)
	_ = eErr // noop fallback guaranteed by OTel API contract

	return func(ctx context.Context, u *qobj.Qobj, next Handler) (*result.Result, error) {
		start := time.Now()
		res, err := next(ctx, u)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("backend", u.BackendName()),
			attribute.String("status", status),
		)

		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return res, err
	}
}
