// Package memstore keeps availability, appointments, profiles and processed
// event ids in process memory. It backs local development and tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/storage"
)

type Store struct {
	mu           sync.Mutex
	availability map[string]model.WeeklyAvailability
	appointments map[string]model.Appointment
	// active maps a slot key to the id of the non-cancelled appointment holding it.
	active   map[model.SlotKey]string
	profiles map[string]model.Profile
	inbox    map[string]struct{}
}

func New() *Store {
	return &Store{
		availability: map[string]model.WeeklyAvailability{},
		appointments: map[string]model.Appointment{},
		active:       map[model.SlotKey]string{},
		profiles:     map[string]model.Profile{},
		inbox:        map[string]struct{}{},
	}
}

func (s *Store) GetAvailability(ctx context.Context, doctorID string) (model.WeeklyAvailability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	avail, ok := s.availability[doctorID]
	if !ok {
		return model.WeeklyAvailability{}, nil
	}
	return avail.Clone(), nil
}

func (s *Store) SetAvailability(ctx context.Context, doctorID string, avail model.WeeklyAvailability) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.availability[doctorID] = avail.Clone()
	return nil
}

func (s *Store) InsertIfAbsent(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return model.Appointment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := appt.Key()
	if _, taken := s.active[key]; taken {
		return model.Appointment{}, storage.ErrSlotTaken
	}
	s.appointments[appt.ID] = appt
	if appt.Active() {
		s.active[key] = appt.ID
	}
	return appt, nil
}

func (s *Store) Get(ctx context.Context, id string) (model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return model.Appointment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	return appt, nil
}

func (s *Store) ListActive(ctx context.Context, doctorID string, date model.Date) ([]model.Appointment, error) {
	return s.filter(ctx, func(a model.Appointment) bool {
		return a.Active() && a.DoctorID == doctorID && a.Date == date
	}, byDateTime, 0)
}

func (s *Store) ListByDoctor(ctx context.Context, doctorID string, from, to model.Date) ([]model.Appointment, error) {
	return s.filter(ctx, func(a model.Appointment) bool {
		return a.DoctorID == doctorID && !a.Date.Before(from) && !to.Before(a.Date)
	}, byDateTime, 0)
}

func (s *Store) ListByPatient(ctx context.Context, patientID string, limit int) ([]model.Appointment, error) {
	return s.filter(ctx, func(a model.Appointment) bool {
		return a.PatientID == patientID
	}, func(a, b model.Appointment) bool { return byDateTime(b, a) }, limit)
}

func byDateTime(a, b model.Appointment) bool {
	if a.DateTime != b.DateTime {
		return a.DateTime < b.DateTime
	}
	return a.ID < b.ID
}

func (s *Store) filter(ctx context.Context, keep func(model.Appointment) bool, less func(a, b model.Appointment) bool, limit int) ([]model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]model.Appointment, 0)
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Transition(ctx context.Context, id string, from model.Status, change model.StatusChange) (model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return model.Appointment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	if appt.Status != from {
		return model.Appointment{}, storage.ErrStatusChanged
	}
	updated := change.Apply(appt)
	s.appointments[id] = updated
	if !updated.Active() && s.active[appt.Key()] == id {
		delete(s.active, appt.Key())
	}
	return updated, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	if err := ctx.Err(); err != nil {
		return model.Profile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return model.Profile{}, storage.ErrNotFound
	}
	return p, nil
}

// UpsertProfile keeps the newest version; an older UpdatedAt is ignored.
func (s *Store) UpsertProfile(ctx context.Context, p model.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.profiles[p.ID]; ok && p.UpdatedAt.Before(cur.UpdatedAt) {
		return nil
	}
	s.profiles[p.ID] = p
	return nil
}

// Record marks eventID processed and reports whether it was new.
func (s *Store) Record(ctx context.Context, eventID, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.inbox[eventID]; seen {
		return false, nil
	}
	s.inbox[eventID] = struct{}{}
	return true, nil
}

func (s *Store) Forget(ctx context.Context, eventID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.inbox, eventID)
	s.mu.Unlock()
	return nil
}
