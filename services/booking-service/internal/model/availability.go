package model

import (
	"fmt"
	"slices"
)

// WeeklyAvailability maps a weekday to its windows in the order the doctor saved them.
// It is persisted and replaced as a whole.
type WeeklyAvailability map[Weekday][]TimeSlot

// Slots returns a copy of the windows for day, nil when there are none.
func (w WeeklyAvailability) Slots(day Weekday) []TimeSlot {
	if len(w[day]) == 0 {
		return nil
	}
	return slices.Clone(w[day])
}

func (w WeeklyAvailability) Clone() WeeklyAvailability {
	out := make(WeeklyAvailability, len(w))
	for day, slots := range w {
		out[day] = slices.Clone(slots)
	}
	return out
}

func (w WeeklyAvailability) Equal(o WeeklyAvailability) bool {
	a, b := w.normalized(), o.normalized()
	if len(a) != len(b) {
		return false
	}
	for day, slots := range a {
		if !slices.Equal(slots, b[day]) {
			return false
		}
	}
	return true
}

func (w WeeklyAvailability) normalized() WeeklyAvailability {
	out := WeeklyAvailability{}
	for day, slots := range w {
		if len(slots) > 0 {
			out[day] = slots
		}
	}
	return out
}

// Validate checks every day key and slot, and that no two windows of a day overlap.
func (w WeeklyAvailability) Validate() error {
	for day, slots := range w {
		if !day.Valid() {
			return fmt.Errorf("invalid weekday %d", int(day))
		}
		for _, s := range slots {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("%s %s: %w", day, s, err)
			}
		}
		sorted := slices.Clone(slots)
		slices.SortFunc(sorted, func(a, b TimeSlot) int { return int(a.Start - b.Start) })
		for i := 1; i < len(sorted); i++ {
			if sorted[i-1].Overlaps(sorted[i]) {
				return fmt.Errorf("%s: slots %s and %s overlap", day, sorted[i-1], sorted[i])
			}
		}
	}
	return nil
}

func (w *WeeklyAvailability) AddSlot(day Weekday, slot TimeSlot) error {
	if !day.Valid() {
		return fmt.Errorf("invalid weekday %d", int(day))
	}
	if err := slot.Validate(); err != nil {
		return err
	}
	if *w == nil {
		*w = WeeklyAvailability{}
	}
	(*w)[day] = append((*w)[day], slot)
	return nil
}

func (w WeeklyAvailability) UpdateSlot(day Weekday, index int, slot TimeSlot) error {
	if index < 0 || index >= len(w[day]) {
		return fmt.Errorf("%s has no slot at index %d", day, index)
	}
	if err := slot.Validate(); err != nil {
		return err
	}
	w[day][index] = slot
	return nil
}

func (w WeeklyAvailability) DeleteSlot(day Weekday, index int) error {
	if index < 0 || index >= len(w[day]) {
		return fmt.Errorf("%s has no slot at index %d", day, index)
	}
	w[day] = slices.Delete(w[day], index, index+1)
	if len(w[day]) == 0 {
		delete(w, day)
	}
	return nil
}
