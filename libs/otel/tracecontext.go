package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceContext is the W3C trace context of a span in a form that can be stored
// in a database row and continued after the originating request is gone.
type TraceContext struct {
	Traceparent string
	Tracestate  string
}

// CaptureTraceContext returns the zero value when ctx carries no valid span.
func CaptureTraceContext(ctx context.Context) TraceContext {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return TraceContext{}
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceContext{Traceparent: carrier.Get("traceparent"), Tracestate: carrier.Get("tracestate")}
}

func (tc TraceContext) IsZero() bool { return tc.Traceparent == "" }

// Into makes tc the remote parent of spans started from parent.
func (tc TraceContext) Into(parent context.Context) context.Context {
	if tc.IsZero() {
		return parent
	}
	carrier := propagation.MapCarrier{"traceparent": tc.Traceparent}
	if tc.Tracestate != "" {
		carrier.Set("tracestate", tc.Tracestate)
	}
	return otel.GetTextMapPropagator().Extract(parent, carrier)
}
