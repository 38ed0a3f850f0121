package model

import (
	"errors"
	"fmt"
)

// MinutesPerDay is also the largest valid Clock, written "24:00", usable only as a slot end.
const MinutesPerDay = 24 * 60

var ErrInvalidClock = errors.New("time must be HH:MM between 00:00 and 24:00")

// Clock is a wall-clock time of day in minutes since midnight. It carries no zone.
type Clock int

func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w (got %q)", ErrInvalidClock, s)
	}
	hh, ok1 := twoDigits(s[0], s[1])
	mm, ok2 := twoDigits(s[3], s[4])
	if !ok1 || !ok2 || hh > 24 || mm > 59 || (hh == 24 && mm != 0) {
		return 0, fmt.Errorf("%w (got %q)", ErrInvalidClock, s)
	}
	return Clock(hh*60 + mm), nil
}

func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

func (c Clock) Valid() bool { return c >= 0 && c <= MinutesPerDay }

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, ErrInvalidClock
	}
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
