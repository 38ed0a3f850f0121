package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
)

const (
	AggregateAppointment = "appointment"

	EventAppointmentBooked    = "booking.appointment.booked.v1"
	EventAppointmentCancelled = "booking.appointment.cancelled.v1"
	EventAppointmentCompleted = "booking.appointment.completed.v1"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type AppointmentPayload struct {
	AppointmentID string                `json:"appointment_id"`
	DoctorID      string                `json:"doctor_id"`
	PatientID     string                `json:"patient_id"`
	Date          model.Date            `json:"date"`
	Start         model.Clock           `json:"start"`
	End           model.Clock           `json:"end"`
	DateTime      int64                 `json:"date_time"`
	Type          model.AppointmentType `json:"type"`
	Status        model.Status          `json:"status"`
	CancelledBy   string                `json:"cancelled_by,omitempty"`
	CancelReason  string                `json:"cancel_reason,omitempty"`
	OccurredAt    time.Time             `json:"occurred_at"`
}

// EventTypeFor maps the status an appointment just entered to its event type.
func EventTypeFor(status model.Status) (string, error) {
	switch status {
	case model.StatusUpcoming:
		return EventAppointmentBooked, nil
	case model.StatusCancelled:
		return EventAppointmentCancelled, nil
	case model.StatusCompleted:
		return EventAppointmentCompleted, nil
	default:
		return "", fmt.Errorf("no event for status %q", status)
	}
}

// AppointmentEvent describes the appointment's current state.
func AppointmentEvent(appt model.Appointment) (Event, error) {
	eventType, err := EventTypeFor(appt.Status)
	if err != nil {
		return Event{}, err
	}
	payload, err := json.Marshal(AppointmentPayload{
		AppointmentID: appt.ID,
		DoctorID:      appt.DoctorID,
		PatientID:     appt.PatientID,
		Date:          appt.Date,
		Start:         appt.Slot.Start,
		End:           appt.Slot.End,
		DateTime:      appt.DateTime,
		Type:          appt.Type,
		Status:        appt.Status,
		CancelledBy:   appt.CancelledBy,
		CancelReason:  appt.CancelReason,
		OccurredAt:    appt.UpdatedAt.UTC(),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
