package booking

import (
	"context"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/availability"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"golang.org/x/sync/errgroup"
)

// Resolution is an advisory view of a doctor's day. It may be stale as soon as
// it is returned; BookAppointment re-validates.
type Resolution struct {
	DoctorID string
	Date     model.Date
	All      []model.TimeSlot
	Free     []model.TimeSlot
}

// Sole returns the only free slot when there is exactly one. Callers may
// pre-select it but must still ask the user to confirm.
func (r Resolution) Sole() (model.TimeSlot, bool) {
	if len(r.Free) != 1 {
		return model.TimeSlot{}, false
	}
	return r.Free[0], true
}

// ResolveFreeSlots derives the day's slots from availability and removes those
// held by active appointments. An empty day is not an error.
func (s *Service) ResolveFreeSlots(ctx context.Context, doctorID string, date model.Date) (Resolution, error) {
	var (
		avail  model.WeeklyAvailability
		booked []model.Appointment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		avail, err = s.store.GetAvailability(gctx, doctorID)
		if err != nil {
			return storageError("get availability", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		booked, err = s.ledger.ListActive(gctx, doctorID, date)
		if err != nil {
			return storageError("list booked appointments", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Resolution{}, err
	}

	all := availability.GenerateSlots(avail, date)
	return Resolution{
		DoctorID: doctorID,
		Date:     date,
		All:      all,
		Free:     availability.FreeSlots(all, booked),
	}, nil
}
