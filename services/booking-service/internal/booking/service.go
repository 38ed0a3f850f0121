package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/storage"
	"github.com/google/uuid"
)

const defaultCommitTimeout = 5 * time.Second

type Config struct {
	// Location interprets wall-clock slots and decides what "today" is.
	Location      *time.Location
	CommitTimeout time.Duration
	Now           func() time.Time
	NewID         func() string
}

// Service implements availability editing, free-slot resolution, booking and
// the appointment lifecycle on top of injected stores.
type Service struct {
	store         AvailabilityStore
	ledger        Ledger
	profiles      ProfileDirectory
	logger        *slog.Logger
	loc           *time.Location
	commitTimeout time.Duration
	now           func() time.Time
	newID         func() string
}

func NewService(store AvailabilityStore, ledger Ledger, profiles ProfileDirectory, logger *slog.Logger, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = defaultCommitTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Service{
		store:         store,
		ledger:        ledger,
		profiles:      profiles,
		logger:        logger,
		loc:           cfg.Location,
		commitTimeout: cfg.CommitTimeout,
		now:           cfg.Now,
		newID:         cfg.NewID,
	}
}

// Location is the zone slots are interpreted in.
func (s *Service) Location() *time.Location { return s.loc }

// Today is the current date in the service location.
func (s *Service) Today() model.Date { return model.Today(s.now(), s.loc) }

func (s *Service) GetAppointment(ctx context.Context, actor Actor, id string) (model.Appointment, error) {
	appt, err := s.loadAppointment(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if !appt.HasParticipant(actor.ID) {
		return model.Appointment{}, ErrForbidden
	}
	return appt, nil
}

func (s *Service) loadAppointment(ctx context.Context, id string) (model.Appointment, error) {
	appt, err := s.ledger.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Appointment{}, ErrAppointmentNotFound
		}
		return model.Appointment{}, storageError("get appointment", err)
	}
	return appt, nil
}
