package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Savotageofficial/capsule/libs/httpx"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/booking"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
)

type AppointmentHandler struct {
	svc    *booking.Service
	logger *slog.Logger
}

func NewAppointmentHandler(svc *booking.Service, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, logger: logger}
}

// createAppointmentRequest leaves doctor, slot and type checks to the service
// so that precondition order and messages stay in one place.
type createAppointmentRequest struct {
	DoctorID string        `json:"doctor_id"`
	Date     string        `json:"date" validate:"required"`
	Slot     *selectedSlot `json:"time_slot"`
	Type     string        `json:"type"`
}

// selectedSlot carries no validate tags: an empty or partial slot is the
// service's "invalid slot", reported after the profile check.
type selectedSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type appointmentListResponse struct {
	Items []appointmentResponse `json:"items"`
}

// Create books a slot for the calling patient.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req createAppointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	date, err := model.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	bookReq := booking.BookingRequest{
		DoctorID:  strings.TrimSpace(req.DoctorID),
		PatientID: actor.ID,
		Date:      date,
		Type:      model.AppointmentType(strings.TrimSpace(req.Type)),
	}
	// A slot that does not parse can never match a generated slot.
	if req.Slot != nil {
		if slot, err := slotDTO(*req.Slot).parse(); err == nil {
			bookReq.Slot = &slot
		}
	}

	appt, err := h.svc.BookAppointment(r.Context(), bookReq)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	appt, err := h.svc.GetAppointment(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req cancelAppointmentRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
	}
	appt, err := h.svc.CancelAppointment(r.Context(), actor, r.PathValue("id"), req.Reason)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	appt, err := h.svc.CompleteAppointment(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *AppointmentHandler) ListForDoctor(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	from, err := optionalDate(r, "from")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	to, err := optionalDate(r, "to")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	appts, err := h.svc.ListDoctorAppointments(r.Context(), actor, r.PathValue("doctorID"), from, to)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointmentListResponse{Items: toAppointmentList(appts)})
}

func (h *AppointmentHandler) ListForPatient(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httpx.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	appts, err := h.svc.ListPatientAppointments(r.Context(), actor, r.PathValue("patientID"), limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointmentListResponse{Items: toAppointmentList(appts)})
}
