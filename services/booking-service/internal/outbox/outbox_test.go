package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Savotageofficial/capsule/libs/kafkax"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestAppointmentEvent(t *testing.T) {
	at := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	appt := model.Appointment{
		ID:        "appt-1",
		DoctorID:  "doc-1",
		PatientID: "pat-1",
		Date:      model.MustDate("2026-03-09"),
		Slot:      model.MustSlot("09:00", "09:30"),
		Type:      model.TypeChat,
		Status:    model.StatusUpcoming,
		UpdatedAt: at,
	}

	evt, err := AppointmentEvent(appt)
	if err != nil {
		t.Fatalf("AppointmentEvent: %v", err)
	}
	if evt.EventType != EventAppointmentBooked || evt.AggregateID != "appt-1" || evt.AggregateType != AggregateAppointment {
		t.Fatalf("unexpected envelope: %+v", evt)
	}
	var payload map[string]any
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["date"] != "2026-03-09" || payload["start"] != "09:00" || payload["status"] != "Upcoming" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, ok := payload["cancel_reason"]; ok {
		t.Fatal("empty cancel reason should be omitted")
	}

	cancelled := model.StatusChange{To: model.StatusCancelled, By: "pat-1", Reason: "travel", At: at}.Apply(appt)
	evt, err = AppointmentEvent(cancelled)
	if err != nil || evt.EventType != EventAppointmentCancelled {
		t.Fatalf("expected cancelled event, got %+v (%v)", evt, err)
	}
	if _, err := EventTypeFor("Unknown"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestBuildMessageCarriesMetaAndTrace(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	rec := Record{
		EventID:     "evt-1",
		AggregateID: "appt-1",
		EventType:   EventAppointmentCompleted,
		Payload:     []byte(`{}`),
		Traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
	}
	msg := buildMessage(context.Background(), rec)
	if msg.Topic != EventAppointmentCompleted || string(msg.Key) != "appt-1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	meta := kafkax.ExtractEventMeta(msg)
	if meta.EventID != "evt-1" || meta.EventType != EventAppointmentCompleted {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if got := kafkax.HeaderValue(msg.Headers, "traceparent"); got != rec.Traceparent {
		t.Fatalf("expected traceparent to be propagated, got %q", got)
	}
}
