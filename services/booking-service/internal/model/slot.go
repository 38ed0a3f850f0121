package model

import (
	"errors"
	"fmt"
)

// TimeSlot is a bookable [Start, End) window within one day.
type TimeSlot struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

func NewTimeSlot(start, end string) (TimeSlot, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TimeSlot{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TimeSlot{}, err
	}
	slot := TimeSlot{Start: s, End: e}
	return slot, slot.Validate()
}

func MustSlot(start, end string) TimeSlot {
	s, err := NewTimeSlot(start, end)
	if err != nil {
		panic(err)
	}
	return s
}

func (s TimeSlot) Validate() error {
	if !s.Start.Valid() || !s.End.Valid() || s.Start == MinutesPerDay {
		return ErrInvalidClock
	}
	if s.Start >= s.End {
		return errors.New("slot start must be before its end")
	}
	return nil
}

// Overlaps treats both slots as half-open, so 09:00-09:30 and 09:30-10:00 do not overlap.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	return s.Start < o.End && o.Start < s.End
}

func (s TimeSlot) Duration() int { return int(s.End - s.Start) }

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}
