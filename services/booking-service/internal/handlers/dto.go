package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/Savotageofficial/capsule/libs/auth"
	"github.com/Savotageofficial/capsule/libs/httpx"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/booking"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
)

type slotDTO struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

func (s slotDTO) parse() (model.TimeSlot, error) {
	return model.NewTimeSlot(strings.TrimSpace(s.Start), strings.TrimSpace(s.End))
}

type appointmentResponse struct {
	ID           string                `json:"id"`
	DoctorID     string                `json:"doctor_id"`
	PatientID    string                `json:"patient_id"`
	DoctorName   string                `json:"doctor_name"`
	PatientName  string                `json:"patient_name"`
	Date         model.Date            `json:"date"`
	DateTime     int64                 `json:"date_time"`
	TimeSlot     model.TimeSlot        `json:"time_slot"`
	Type         model.AppointmentType `json:"type"`
	Status       model.Status          `json:"status"`
	CancelledAt  string                `json:"cancelled_at,omitempty"`
	CancelledBy  string                `json:"cancelled_by,omitempty"`
	CancelReason string                `json:"cancel_reason,omitempty"`
	CreatedAt    string                `json:"created_at"`
	UpdatedAt    string                `json:"updated_at"`
}

func toAppointmentResponse(a model.Appointment) appointmentResponse {
	resp := appointmentResponse{
		ID:           a.ID,
		DoctorID:     a.DoctorID,
		PatientID:    a.PatientID,
		DoctorName:   a.DoctorName,
		PatientName:  a.PatientName,
		Date:         a.Date,
		DateTime:     a.DateTime,
		TimeSlot:     a.Slot,
		Type:         a.Type,
		Status:       a.Status,
		CancelledBy:  a.CancelledBy,
		CancelReason: a.CancelReason,
		CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.CancelledAt != nil {
		resp.CancelledAt = a.CancelledAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toAppointmentList(appts []model.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

// actorFrom reads the caller placed in the context by auth.RequireAuth.
func actorFrom(w http.ResponseWriter, r *http.Request) (booking.Actor, bool) {
	a, ok := auth.ActorFromContext(r.Context())
	if !ok || a.ID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return booking.Actor{}, false
	}
	return booking.Actor{ID: a.ID, Role: model.Role(a.Role)}, true
}

// optionalDate parses a YYYY-MM-DD query parameter; empty yields the zero Date.
func optionalDate(r *http.Request, name string) (model.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return model.Date{}, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, &httpx.BadRequestError{Msg: name + " must be YYYY-MM-DD"}
	}
	return d, nil
}
