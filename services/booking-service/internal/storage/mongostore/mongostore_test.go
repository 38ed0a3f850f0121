package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Savotageofficial/capsule/libs/mongox"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/storage"
	"github.com/google/uuid"
)

func TestDocumentConversion(t *testing.T) {
	avail := model.WeeklyAvailability{
		model.Monday: {model.MustSlot("09:00", "09:30"), model.MustSlot("23:30", "24:00")},
	}
	doc := toAvailabilityDoc("doc-1", avail, time.Now())
	if len(doc.Days["Monday"]) != 2 || doc.Days["Monday"][1].End != model.MinutesPerDay {
		t.Fatalf("unexpected document: %+v", doc)
	}
	back, err := doc.model()
	if err != nil || !back.Equal(avail) {
		t.Fatalf("expected %v, got %v (%v)", avail, back, err)
	}

	doc.Days["Someday"] = nil
	if _, err := doc.model(); err == nil {
		t.Fatal("expected unknown day key to fail")
	}

	appt := model.Appointment{ID: "a1", Date: model.MustDate("2026-03-09"), Slot: model.MustSlot("09:00", "09:30"), Status: model.StatusCancelled}
	ad := toAppointmentDoc(appt)
	if ad.Active || ad.Date != "2026-03-09" || ad.SlotStart != 540 {
		t.Fatalf("unexpected appointment document: %+v", ad)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	client, db, err := mongox.Open(ctx, uri, "capsule_test_"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	s := New(db)
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	date := model.MustDate("2030-01-07")
	appt := func(id, patient string) model.Appointment {
		return model.Appointment{
			ID: id, DoctorID: "doc", PatientID: patient, Date: date,
			Slot: model.MustSlot("09:00", "09:30"), Type: model.TypeChat, Status: model.StatusUpcoming,
		}
	}
	if _, err := s.InsertIfAbsent(ctx, appt("a1", "p1")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertIfAbsent(ctx, appt("a2", "p2")); !errors.Is(err, storage.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	change := model.StatusChange{To: model.StatusCancelled, By: "p1", At: time.Now().UTC()}
	if _, err := s.Transition(ctx, "a1", model.StatusUpcoming, change); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := s.Transition(ctx, "a1", model.StatusUpcoming, change); !errors.Is(err, storage.ErrStatusChanged) {
		t.Fatalf("expected ErrStatusChanged, got %v", err)
	}
	if _, err := s.InsertIfAbsent(ctx, appt("a3", "p2")); err != nil {
		t.Fatalf("expected cancelled slot to be reusable: %v", err)
	}
	active, err := s.ListActive(ctx, "doc", date)
	if err != nil || len(active) != 1 || active[0].ID != "a3" {
		t.Fatalf("unexpected active list: %v (%v)", active, err)
	}

	first, _ := s.Record(ctx, "evt-1", "profile.upserted.v1")
	again, _ := s.Record(ctx, "evt-1", "profile.upserted.v1")
	if !first || again {
		t.Fatalf("expected dedupe, got %v %v", first, again)
	}
}
