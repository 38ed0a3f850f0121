package availability

import (
	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
)

// GenerateSlots returns the candidate slots for date: the windows stored for its
// weekday, in storage order. A day without windows yields an empty, non-nil slice.
func GenerateSlots(avail model.WeeklyAvailability, date model.Date) []model.TimeSlot {
	slots := avail.Slots(date.Weekday())
	if slots == nil {
		return []model.TimeSlot{}
	}
	return slots
}

// FreeSlots removes from all every slot whose start matches an active booking.
// The order of all is preserved. Cancelled appointments never block a slot.
func FreeSlots(all []model.TimeSlot, booked []model.Appointment) []model.TimeSlot {
	taken := make(map[model.Clock]struct{}, len(booked))
	for _, a := range booked {
		if a.Active() {
			taken[a.Slot.Start] = struct{}{}
		}
	}
	free := make([]model.TimeSlot, 0, len(all))
	for _, s := range all {
		if _, ok := taken[s.Start]; !ok {
			free = append(free, s)
		}
	}
	return free
}

// Contains reports whether slot is exactly one of slots.
func Contains(slots []model.TimeSlot, slot model.TimeSlot) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}
