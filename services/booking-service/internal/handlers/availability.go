package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Savotageofficial/capsule/libs/httpx"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/booking"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
)

type AvailabilityHandler struct {
	svc    *booking.Service
	logger *slog.Logger
}

func NewAvailabilityHandler(svc *booking.Service, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, logger: logger}
}

type availabilityRequest struct {
	Days model.WeeklyAvailability `json:"days" validate:"required"`
}

type availabilityResponse struct {
	DoctorID string                   `json:"doctor_id"`
	Days     model.WeeklyAvailability `json:"days"`
}

type slotsResponse struct {
	DoctorID  string           `json:"doctor_id"`
	Date      model.Date       `json:"date"`
	AllSlots  []model.TimeSlot `json:"all_slots"`
	FreeSlots []model.TimeSlot `json:"free_slots"`
	// Suggested is set when exactly one slot is free. It is a hint; nothing is booked.
	Suggested *model.TimeSlot `json:"suggested,omitempty"`
}

func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("doctorID")
	avail, err := h.svc.GetAvailability(r.Context(), doctorID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, availabilityResponse{DoctorID: doctorID, Days: avail})
}

func (h *AvailabilityHandler) Put(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req availabilityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	doctorID := r.PathValue("doctorID")
	if err := h.svc.SetAvailability(r.Context(), actor, doctorID, req.Days); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, availabilityResponse{DoctorID: doctorID, Days: req.Days})
}

func (h *AvailabilityHandler) AddSlot(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	day, err := pathWeekday(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	slot, err := decodeSlot(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	doctorID := r.PathValue("doctorID")
	avail, err := h.svc.AddSlot(r.Context(), actor, doctorID, day, slot)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, availabilityResponse{DoctorID: doctorID, Days: avail})
}

func (h *AvailabilityHandler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	day, err := pathWeekday(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	index, err := pathIndex(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	slot, err := decodeSlot(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	doctorID := r.PathValue("doctorID")
	avail, err := h.svc.UpdateSlot(r.Context(), actor, doctorID, day, index, slot)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, availabilityResponse{DoctorID: doctorID, Days: avail})
}

func (h *AvailabilityHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	day, err := pathWeekday(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	index, err := pathIndex(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	doctorID := r.PathValue("doctorID")
	avail, err := h.svc.DeleteSlot(r.Context(), actor, doctorID, day, index)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, availabilityResponse{DoctorID: doctorID, Days: avail})
}

// Slots resolves the free slots of one calendar date.
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	date, err := optionalDate(r, "date")
	if err == nil && date.IsZero() {
		err = &httpx.BadRequestError{Msg: "date is required"}
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.ResolveFreeSlots(r.Context(), r.PathValue("doctorID"), date)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	resp := slotsResponse{DoctorID: res.DoctorID, Date: res.Date, AllSlots: res.All, FreeSlots: res.Free}
	if sole, ok := res.Sole(); ok {
		resp.Suggested = &sole
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func pathWeekday(r *http.Request) (model.Weekday, error) {
	day, err := model.ParseWeekday(r.PathValue("day"))
	if err != nil {
		return 0, &httpx.BadRequestError{Msg: "day must be a weekday name"}
	}
	return day, nil
}

func pathIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		return 0, &httpx.BadRequestError{Msg: "index must be a non-negative integer"}
	}
	return index, nil
}

func decodeSlot(r *http.Request) (model.TimeSlot, error) {
	var req slotDTO
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return model.TimeSlot{}, err
	}
	slot, err := req.parse()
	if err != nil {
		return model.TimeSlot{}, &booking.ValidationError{Msg: err.Error()}
	}
	return slot, nil
}
