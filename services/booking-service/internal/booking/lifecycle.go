package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/storage"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
	// MaxListDays bounds a doctor's date-range query.
	MaxListDays = 92
)

// CancelAppointment frees the slot. Either participant may cancel; cancelling
// an already cancelled appointment returns it unchanged.
func (s *Service) CancelAppointment(ctx context.Context, actor Actor, id, reason string) (model.Appointment, error) {
	appt, err := s.loadAppointment(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if !appt.HasParticipant(actor.ID) {
		return model.Appointment{}, ErrForbidden
	}
	return s.transition(ctx, appt, model.StatusChange{
		To:     model.StatusCancelled,
		By:     actor.ID,
		Reason: strings.TrimSpace(reason),
	})
}

// CompleteAppointment is reserved for the appointment's doctor.
func (s *Service) CompleteAppointment(ctx context.Context, actor Actor, id string) (model.Appointment, error) {
	appt, err := s.loadAppointment(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if actor.Role != model.RoleDoctor || actor.ID != appt.DoctorID {
		return model.Appointment{}, fmt.Errorf("%w: only the doctor may complete an appointment", ErrForbidden)
	}
	return s.transition(ctx, appt, model.StatusChange{To: model.StatusCompleted, By: actor.ID})
}

func (s *Service) transition(ctx context.Context, appt model.Appointment, change model.StatusChange) (model.Appointment, error) {
	if appt.Status == model.StatusCancelled && change.To == model.StatusCancelled {
		return appt, nil
	}
	if !appt.Status.CanTransitionTo(change.To) {
		return model.Appointment{}, notUpcoming(appt.Status)
	}
	change.At = s.now()

	updated, err := s.ledger.Transition(ctx, appt.ID, model.StatusUpcoming, change)
	if err == nil {
		s.logger.Info("appointment status changed",
			"appointment_id", updated.ID,
			"status", updated.Status,
			"by", change.By,
		)
		return updated, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return model.Appointment{}, ErrAppointmentNotFound
	}
	if !errors.Is(err, storage.ErrStatusChanged) {
		return model.Appointment{}, storageError("update appointment status", err)
	}

	// Lost a race with another transition; report what actually happened.
	current, err := s.loadAppointment(ctx, appt.ID)
	if err != nil {
		return model.Appointment{}, err
	}
	if current.Status == model.StatusCancelled && change.To == model.StatusCancelled {
		return current, nil
	}
	return model.Appointment{}, notUpcoming(current.Status)
}

func notUpcoming(status model.Status) error {
	return validationError("appointment is already %s", strings.ToLower(string(status)))
}

// ListDoctorAppointments returns the doctor's appointments between from and to
// inclusive. A zero from means today; a zero to means thirty days after from.
func (s *Service) ListDoctorAppointments(ctx context.Context, actor Actor, doctorID string, from, to model.Date) ([]model.Appointment, error) {
	if actor.Role != model.RoleDoctor || actor.ID != doctorID {
		return nil, fmt.Errorf("%w: doctors can only list their own appointments", ErrForbidden)
	}
	if from.IsZero() {
		from = s.Today()
	}
	if to.IsZero() {
		to = from.AddDays(30)
	}
	if to.Before(from) {
		return nil, validationError("to must not be before from")
	}
	if from.AddDays(MaxListDays).Before(to) {
		return nil, validationError("date range must not exceed %d days", MaxListDays)
	}
	out, err := s.ledger.ListByDoctor(ctx, doctorID, from, to)
	if err != nil {
		return nil, storageError("list doctor appointments", err)
	}
	return out, nil
}

// ListPatientAppointments returns the patient's most recent appointments first.
func (s *Service) ListPatientAppointments(ctx context.Context, actor Actor, patientID string, limit int) ([]model.Appointment, error) {
	if actor.ID != patientID {
		return nil, fmt.Errorf("%w: patients can only list their own appointments", ErrForbidden)
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	out, err := s.ledger.ListByPatient(ctx, patientID, limit)
	if err != nil {
		return nil, storageError("list patient appointments", err)
	}
	return out, nil
}
