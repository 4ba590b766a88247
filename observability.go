package graphbolt

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// observability wraps the tracer/meter pair used to instrument pool
// acquisition and statement execution, grounded in seuros-gopher-
// cypher's Config.Observability{EnableTracing, EnableMetrics} shape.
// Each Driver owns its own SDK-backed TracerProvider/MeterProvider
// (never registered as the process-wide global, so multiple Drivers in
// one process don't collide) and falls back to OpenTelemetry's no-op
// implementations when disabled, so the dependency is always linked but
// never mandatory.
type observability struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider

	tracer           trace.Tracer
	poolOccupancy    metric.Int64UpDownCounter
	statementCounter metric.Int64Counter
}

func newObservability(cfg ObservabilityConfig) *observability {
	o := &observability{}

	if cfg.EnableTracing {
		o.tracerProvider = sdktrace.NewTracerProvider()
		o.tracer = o.tracerProvider.Tracer("github.com/arboracle/graphbolt")
	} else {
		o.tracer = trace.NewNoopTracerProvider().Tracer("github.com/arboracle/graphbolt")
	}

	if cfg.EnableMetrics {
		o.meterProvider = sdkmetric.NewMeterProvider()
		meter := o.meterProvider.Meter("github.com/arboracle/graphbolt")
		if counter, err := meter.Int64UpDownCounter("graphbolt.pool.acquired"); err == nil {
			o.poolOccupancy = counter
		}
		if counter, err := meter.Int64Counter("graphbolt.statements.run"); err == nil {
			o.statementCounter = counter
		}
	}
	return o
}

// startSpan opens a span named name with an address attribute (never
// statement text or parameters, so traces can't leak query data) and
// returns a function to end it with the operation's outcome.
func (o *observability) startSpan(ctx context.Context, name string, address Address) func(err error) {
	_, span := o.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("graphbolt.address", address.String()),
	))
	return func(err error) {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// recordAcquire adjusts the pool occupancy gauge by delta (+1 on
// acquire, -1 on release).
func (o *observability) recordAcquire(ctx context.Context, delta int64) {
	if o.poolOccupancy != nil {
		o.poolOccupancy.Add(ctx, delta)
	}
}

// recordStatementRun increments the statement counter, tagged with
// statement length only (never the statement text itself).
func (o *observability) recordStatementRun(ctx context.Context, statementLen int) {
	if o.statementCounter != nil {
		o.statementCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.Int("graphbolt.statement_length", statementLen),
		))
	}
}

// shutdown releases the SDK providers this observability instance owns,
// if any were created. Safe to call even when tracing/metrics were
// never enabled.
func (o *observability) shutdown(ctx context.Context) error {
	var firstErr error
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
