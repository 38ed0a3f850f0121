package model

import (
	"fmt"
	"time"
)

type AppointmentType string

const (
	TypeInPerson AppointmentType = "In-Person"
	TypeChat     AppointmentType = "Chat"
)

func (t AppointmentType) Valid() bool {
	return t == TypeInPerson || t == TypeChat
}

type Status string

const (
	StatusUpcoming  Status = "Upcoming"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether s -> to is allowed. Only Upcoming has outgoing edges.
func (s Status) CanTransitionTo(to Status) bool {
	return s == StatusUpcoming && (to == StatusCompleted || to == StatusCancelled)
}

type Appointment struct {
	ID          string
	DoctorID    string
	PatientID   string
	PatientName string
	DoctorName  string
	Date        Date
	// DateTime is Date at Slot.Start in the service location, in epoch milliseconds.
	DateTime     int64
	Slot         TimeSlot
	Type         AppointmentType
	Status       Status
	CancelledAt  *time.Time
	CancelledBy  string
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active appointments occupy their slot.
func (a Appointment) Active() bool { return a.Status != StatusCancelled }

func (a Appointment) Key() SlotKey { return KeyFor(a.DoctorID, a.Date, a.Slot.Start) }

// HasParticipant reports whether userID is the doctor or the patient of the appointment.
func (a Appointment) HasParticipant(userID string) bool {
	return userID != "" && (userID == a.DoctorID || userID == a.PatientID)
}

// SlotKey identifies the unit of exclusivity in the ledger: one active
// appointment per doctor, date and slot start.
type SlotKey struct {
	DoctorID string
	Date     Date
	Start    Clock
}

func KeyFor(doctorID string, date Date, start Clock) SlotKey {
	return SlotKey{DoctorID: doctorID, Date: date, Start: start}
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.DoctorID, k.Date, k.Start)
}

// StatusChange describes a transition applied to an Upcoming appointment.
type StatusChange struct {
	To     Status
	By     string
	Reason string
	At     time.Time
}

// Apply returns a copy of a with the change applied.
func (c StatusChange) Apply(a Appointment) Appointment {
	a.Status = c.To
	a.UpdatedAt = c.At
	if c.To == StatusCancelled {
		at := c.At
		a.CancelledAt = &at
		a.CancelledBy = c.By
		a.CancelReason = c.Reason
	}
	return a
}
