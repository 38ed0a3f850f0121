package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/availability"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/storage"
)

type BookingRequest struct {
	DoctorID  string
	PatientID string
	Date      model.Date
	// Slot is the slot the user confirmed. Nil means nothing was selected.
	Slot *model.TimeSlot
	Type model.AppointmentType
}

// BookAppointment validates req against current state and atomically claims
// the slot. Preconditions are checked in a fixed order and the first failure
// wins: profile, slot, date, type.
//
// Once the commit starts it is no longer tied to ctx: the caller going away
// cannot leave a half-written booking behind. A commit that exceeds the
// configured timeout is reported as a StorageError with OutcomeUnknown set.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (model.Appointment, error) {
	patient, err := s.patientProfile(ctx, req.PatientID)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := s.checkSlot(ctx, req); err != nil {
		return model.Appointment{}, err
	}
	if req.Date.Before(s.Today()) {
		return model.Appointment{}, &ValidationError{Msg: MsgPastDate}
	}
	if !req.Type.Valid() {
		return model.Appointment{}, &ValidationError{Msg: "invalid appointment type"}
	}

	// Abandoning before the commit leaves nothing behind.
	if err := ctx.Err(); err != nil {
		return model.Appointment{}, err
	}

	now := s.now()
	appt := model.Appointment{
		ID:          s.newID(),
		DoctorID:    req.DoctorID,
		PatientID:   req.PatientID,
		PatientName: patient.DisplayName,
		DoctorName:  s.displayName(ctx, req.DoctorID),
		Date:        req.Date,
		DateTime:    req.Date.At(req.Slot.Start, s.loc).UnixMilli(),
		Slot:        *req.Slot,
		Type:        req.Type,
		Status:      model.StatusUpcoming,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.commit(ctx, appt)
}

func (s *Service) patientProfile(ctx context.Context, patientID string) (model.Profile, error) {
	if strings.TrimSpace(patientID) == "" {
		return model.Profile{}, &ValidationError{Msg: MsgProfileIncomplete}
	}
	p, err := s.profiles.GetProfile(ctx, patientID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Profile{}, &ValidationError{Msg: MsgProfileIncomplete}
		}
		return model.Profile{}, storageError("get patient profile", err)
	}
	if !p.Complete || p.Role != model.RolePatient {
		return model.Profile{}, &ValidationError{Msg: MsgProfileIncomplete}
	}
	return p, nil
}

// checkSlot requires the selected slot to be exactly one of the slots the
// doctor's availability generates for the requested date. It reads past any
// cache in front of the store.
func (s *Service) checkSlot(ctx context.Context, req BookingRequest) error {
	if req.Slot == nil || strings.TrimSpace(req.DoctorID) == "" || req.Date.IsZero() {
		return &ValidationError{Msg: MsgInvalidSlot}
	}
	get := s.store.GetAvailability
	if fresh, ok := s.store.(FreshReader); ok {
		get = fresh.GetAvailabilityFresh
	}
	avail, err := get(ctx, req.DoctorID)
	if err != nil {
		return storageError("get availability", err)
	}
	if !availability.Contains(availability.GenerateSlots(avail, req.Date), *req.Slot) {
		return &ValidationError{Msg: MsgInvalidSlot}
	}
	return nil
}

// displayName is best effort; a missing doctor profile leaves the name blank.
func (s *Service) displayName(ctx context.Context, id string) string {
	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("profile lookup failed", "profile_id", id, "err", err)
		}
		return ""
	}
	return p.DisplayName
}

func (s *Service) commit(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.commitTimeout)
	defer cancel()

	saved, err := s.ledger.InsertIfAbsent(commitCtx, appt)
	switch {
	case err == nil:
		s.logger.Info("appointment booked",
			"appointment_id", saved.ID,
			"doctor_id", saved.DoctorID,
			"patient_id", saved.PatientID,
			"slot_key", saved.Key().String(),
		)
		return saved, nil
	case errors.Is(err, storage.ErrSlotTaken):
		s.logger.Info("slot conflict", "slot_key", appt.Key().String(), "patient_id", appt.PatientID)
		return model.Appointment{}, &ConflictError{Msg: MsgSlotBooked}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(commitCtx.Err(), context.DeadlineExceeded):
		s.logger.Warn("booking commit timed out", "appointment_id", appt.ID, "slot_key", appt.Key().String(), "timeout", s.commitTimeout)
		return model.Appointment{}, &StorageError{Op: "commit appointment", Err: err, OutcomeUnknown: true}
	default:
		return model.Appointment{}, storageError("commit appointment", err)
	}
}
