package booking

import (
	"context"
	"fmt"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
)

func (s *Service) GetAvailability(ctx context.Context, doctorID string) (model.WeeklyAvailability, error) {
	avail, err := s.store.GetAvailability(ctx, doctorID)
	if err != nil {
		return nil, storageError("get availability", err)
	}
	if avail == nil {
		avail = model.WeeklyAvailability{}
	}
	return avail, nil
}

// SetAvailability replaces the doctor's whole weekly availability. Overlapping
// windows on a day are rejected before anything is written.
func (s *Service) SetAvailability(ctx context.Context, actor Actor, doctorID string, avail model.WeeklyAvailability) error {
	if err := s.authorizeOwner(actor, doctorID); err != nil {
		return err
	}
	if avail == nil {
		avail = model.WeeklyAvailability{}
	}
	if err := avail.Validate(); err != nil {
		return &ValidationError{Msg: err.Error()}
	}
	if err := s.store.SetAvailability(ctx, doctorID, avail); err != nil {
		return storageError("set availability", err)
	}
	s.logger.Info("availability saved", "doctor_id", doctorID, "days", len(avail))
	return nil
}

func (s *Service) AddSlot(ctx context.Context, actor Actor, doctorID string, day model.Weekday, slot model.TimeSlot) (model.WeeklyAvailability, error) {
	return s.editAvailability(ctx, actor, doctorID, func(w *model.WeeklyAvailability) error {
		return w.AddSlot(day, slot)
	})
}

func (s *Service) UpdateSlot(ctx context.Context, actor Actor, doctorID string, day model.Weekday, index int, slot model.TimeSlot) (model.WeeklyAvailability, error) {
	return s.editAvailability(ctx, actor, doctorID, func(w *model.WeeklyAvailability) error {
		return w.UpdateSlot(day, index, slot)
	})
}

func (s *Service) DeleteSlot(ctx context.Context, actor Actor, doctorID string, day model.Weekday, index int) (model.WeeklyAvailability, error) {
	return s.editAvailability(ctx, actor, doctorID, func(w *model.WeeklyAvailability) error {
		return w.DeleteSlot(day, index)
	})
}

// editAvailability edits a local copy and pushes the whole map back.
func (s *Service) editAvailability(ctx context.Context, actor Actor, doctorID string, edit func(*model.WeeklyAvailability) error) (model.WeeklyAvailability, error) {
	if err := s.authorizeOwner(actor, doctorID); err != nil {
		return nil, err
	}
	current, err := s.GetAvailability(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	local := current.Clone()
	if err := edit(&local); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	if err := s.SetAvailability(ctx, actor, doctorID, local); err != nil {
		return nil, err
	}
	return local, nil
}

func (s *Service) authorizeOwner(actor Actor, doctorID string) error {
	if doctorID == "" || actor.Role != model.RoleDoctor || actor.ID != doctorID {
		return fmt.Errorf("%w: only the doctor may edit their availability", ErrForbidden)
	}
	return nil
}
