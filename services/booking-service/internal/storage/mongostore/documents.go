package mongostore

import (
	"fmt"
	"time"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
)

type slotDoc struct {
	Start int `bson:"start"`
	End   int `bson:"end"`
}

type availabilityDoc struct {
	DoctorID  string               `bson:"_id"`
	Days      map[string][]slotDoc `bson:"days"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

func toAvailabilityDoc(doctorID string, avail model.WeeklyAvailability, now time.Time) availabilityDoc {
	days := make(map[string][]slotDoc, len(avail))
	for day, slots := range avail {
		docs := make([]slotDoc, 0, len(slots))
		for _, s := range slots {
			docs = append(docs, slotDoc{Start: int(s.Start), End: int(s.End)})
		}
		days[day.String()] = docs
	}
	return availabilityDoc{DoctorID: doctorID, Days: days, UpdatedAt: now}
}

func (d availabilityDoc) model() (model.WeeklyAvailability, error) {
	out := make(model.WeeklyAvailability, len(d.Days))
	for key, docs := range d.Days {
		day, err := model.ParseWeekday(key)
		if err != nil {
			return nil, fmt.Errorf("availability %s: %w", d.DoctorID, err)
		}
		slots := make([]model.TimeSlot, 0, len(docs))
		for _, s := range docs {
			slots = append(slots, model.TimeSlot{Start: model.Clock(s.Start), End: model.Clock(s.End)})
		}
		out[day] = slots
	}
	return out, nil
}

// appointmentDoc mirrors model.Appointment. Active duplicates status != Cancelled
// so the unique index can be partial on it.
type appointmentDoc struct {
	ID           string     `bson:"_id"`
	DoctorID     string     `bson:"doctor_id"`
	PatientID    string     `bson:"patient_id"`
	PatientName  string     `bson:"patient_name"`
	DoctorName   string     `bson:"doctor_name"`
	Date         string     `bson:"date"`
	DateTime     int64      `bson:"date_time"`
	SlotStart    int        `bson:"slot_start"`
	SlotEnd      int        `bson:"slot_end"`
	Type         string     `bson:"type"`
	Status       string     `bson:"status"`
	Active       bool       `bson:"active"`
	CancelledAt  *time.Time `bson:"cancelled_at,omitempty"`
	CancelledBy  string     `bson:"cancelled_by,omitempty"`
	CancelReason string     `bson:"cancel_reason,omitempty"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
}

func toAppointmentDoc(a model.Appointment) appointmentDoc {
	return appointmentDoc{
		ID:           a.ID,
		DoctorID:     a.DoctorID,
		PatientID:    a.PatientID,
		PatientName:  a.PatientName,
		DoctorName:   a.DoctorName,
		Date:         a.Date.String(),
		DateTime:     a.DateTime,
		SlotStart:    int(a.Slot.Start),
		SlotEnd:      int(a.Slot.End),
		Type:         string(a.Type),
		Status:       string(a.Status),
		Active:       a.Active(),
		CancelledAt:  a.CancelledAt,
		CancelledBy:  a.CancelledBy,
		CancelReason: a.CancelReason,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (d appointmentDoc) model() (model.Appointment, error) {
	date, err := model.ParseDate(d.Date)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("appointment %s: %w", d.ID, err)
	}
	return model.Appointment{
		ID:           d.ID,
		DoctorID:     d.DoctorID,
		PatientID:    d.PatientID,
		PatientName:  d.PatientName,
		DoctorName:   d.DoctorName,
		Date:         date,
		DateTime:     d.DateTime,
		Slot:         model.TimeSlot{Start: model.Clock(d.SlotStart), End: model.Clock(d.SlotEnd)},
		Type:         model.AppointmentType(d.Type),
		Status:       model.Status(d.Status),
		CancelledAt:  d.CancelledAt,
		CancelledBy:  d.CancelledBy,
		CancelReason: d.CancelReason,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

type profileDoc struct {
	ID          string    `bson:"_id"`
	Role        string    `bson:"role"`
	DisplayName string    `bson:"display_name"`
	Complete    bool      `bson:"complete"`
	UpdatedAt   time.Time `bson:"updated_at"`
}
