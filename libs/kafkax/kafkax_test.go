package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestExtractEventMetaFallsBack(t *testing.T) {
	msg := kafka.Message{Topic: "profile.upserted.v1", Key: []byte("patient-1"), Partition: 2, Offset: 41}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "profile.upserted.v1/2/41" || meta.EventType != "profile.upserted.v1" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	msg.Offset = 42
	if next := ExtractEventMeta(msg); next.EventID == meta.EventID {
		t.Fatalf("same key at another offset must get its own id, got %q", next.EventID)
	}

	msg.Headers = EventMeta{EventID: "evt-9", EventType: "profile.upserted.v1"}.Headers()
	meta = ExtractEventMeta(msg)
	if meta.EventID != "evt-9" {
		t.Fatalf("expected header event id, got %q", meta.EventID)
	}
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	headers := InjectTraceHeaders(ctx, EventMeta{EventID: "e1", EventType: "t"}.Headers())
	if HeaderValue(headers, "traceparent") == "" {
		t.Fatalf("expected traceparent header, got %+v", headers)
	}

	extracted := ExtractTraceContext(context.Background(), kafka.Message{Headers: headers})
	_, child := tp.Tracer("test").Start(extracted, "consume")
	defer child.End()
	if child.SpanContext().TraceID() != span.SpanContext().TraceID() {
		t.Fatal("expected consumer span to join the producer trace")
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092 ")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers: %v", got)
	}
}
