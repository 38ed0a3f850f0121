package booking

import (
	"context"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
)

// AvailabilityStore persists each doctor's weekly availability as one document.
// A doctor with nothing saved has an empty availability, not an error.
type AvailabilityStore interface {
	GetAvailability(ctx context.Context, doctorID string) (model.WeeklyAvailability, error)
	SetAvailability(ctx context.Context, doctorID string, avail model.WeeklyAvailability) error
}

// FreshReader is implemented by availability stores that cache. BookAppointment
// validates the slot through it so a stale cached map cannot admit a booking.
type FreshReader interface {
	GetAvailabilityFresh(ctx context.Context, doctorID string) (model.WeeklyAvailability, error)
}

// Ledger is the authoritative record of appointments.
//
// InsertIfAbsent must check and write in one atomic step: it fails with
// storage.ErrSlotTaken when an active appointment already holds appt.Key().
// Transition applies change only while the stored status equals from, failing
// with storage.ErrStatusChanged otherwise.
type Ledger interface {
	InsertIfAbsent(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	ListActive(ctx context.Context, doctorID string, date model.Date) ([]model.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string, from, to model.Date) ([]model.Appointment, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]model.Appointment, error)
	Transition(ctx context.Context, id string, from model.Status, change model.StatusChange) (model.Appointment, error)
}

// ProfileDirectory resolves users. Unknown ids fail with storage.ErrNotFound.
type ProfileDirectory interface {
	GetProfile(ctx context.Context, id string) (model.Profile, error)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role model.Role
}
