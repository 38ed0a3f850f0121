package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want Clock
		ok   bool
	}{
		{in: "00:00", want: 0, ok: true},
		{in: "09:30", want: 570, ok: true},
		{in: "23:59", want: 1439, ok: true},
		{in: "24:00", want: 1440, ok: true},
		{in: "24:01"},
		{in: "9:30"},
		{in: "09:60"},
		{in: "ab:cd"},
		{in: "09.30"},
		{in: ""},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("ParseClock(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
			}
			if got.String() != tc.in {
				t.Fatalf("String() = %q, want %q", got.String(), tc.in)
			}
			continue
		}
		if err == nil {
			t.Fatalf("ParseClock(%q) expected error", tc.in)
		}
	}
}

func TestTimeSlotValidate(t *testing.T) {
	if _, err := NewTimeSlot("09:00", "09:30"); err != nil {
		t.Fatalf("expected valid slot: %v", err)
	}
	if _, err := NewTimeSlot("23:30", "24:00"); err != nil {
		t.Fatalf("expected slot ending at midnight to be valid: %v", err)
	}
	for _, pair := range [][2]string{{"09:30", "09:00"}, {"09:00", "09:00"}, {"24:00", "24:00"}} {
		if _, err := NewTimeSlot(pair[0], pair[1]); err == nil {
			t.Fatalf("expected %v to be rejected", pair)
		}
	}
}

func TestTimeSlotOverlaps(t *testing.T) {
	a := MustSlot("09:00", "09:30")
	if a.Overlaps(MustSlot("09:30", "10:00")) {
		t.Fatal("touching slots must not overlap")
	}
	if !a.Overlaps(MustSlot("09:15", "09:45")) {
		t.Fatal("expected overlap")
	}
	if !a.Overlaps(MustSlot("08:00", "12:00")) {
		t.Fatal("expected containment to overlap")
	}
}

func TestWeekday(t *testing.T) {
	if d, err := ParseWeekday("monday"); err != nil || d != Monday {
		t.Fatalf("ParseWeekday(monday) = %v, %v", d, err)
	}
	if _, err := ParseWeekday("Funday"); err == nil {
		t.Fatal("expected unknown weekday to fail")
	}
	if WeekdayOf(time.Sunday) != Sunday || WeekdayOf(time.Monday) != Monday || WeekdayOf(time.Saturday) != Saturday {
		t.Fatal("WeekdayOf mapping is wrong")
	}
	if len(Weekdays()) != 7 {
		t.Fatal("expected seven weekdays")
	}
}

func TestWeeklyAvailabilityJSON(t *testing.T) {
	in := `{"Monday":[{"start":"09:00","end":"09:30"},{"start":"14:00","end":"15:00"}],"friday":[{"start":"10:00","end":"11:00"}]}`
	var w WeeklyAvailability
	if err := json.Unmarshal([]byte(in), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := w.Slots(Monday); len(got) != 2 || got[1] != MustSlot("14:00", "15:00") {
		t.Fatalf("unexpected Monday slots: %v", got)
	}
	if got := w.Slots(Friday); len(got) != 1 {
		t.Fatalf("expected case-insensitive day key, got %v", w)
	}

	out, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"Friday":[{"start":"10:00","end":"11:00"}]`) {
		t.Fatalf("unexpected encoding: %s", out)
	}

	if err := json.Unmarshal([]byte(`{"Caturday":[]}`), &w); err == nil {
		t.Fatal("expected unknown day key to fail")
	}
	if err := json.Unmarshal([]byte(`{"Monday":[{"start":"9am","end":"10:00"}]}`), &w); err == nil {
		t.Fatal("expected malformed clock to fail")
	}
}

func TestWeeklyAvailabilityValidate(t *testing.T) {
	ok := WeeklyAvailability{
		Monday:  {MustSlot("09:00", "09:30"), MustSlot("09:30", "10:00"), MustSlot("08:00", "09:00")},
		Tuesday: nil,
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected touching, unsorted windows to be valid: %v", err)
	}

	bad := WeeklyAvailability{
		Wednesday: {MustSlot("13:00", "14:00"), MustSlot("09:00", "10:00"), MustSlot("13:30", "15:00")},
	}
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected overlap to be rejected")
	}
	if !strings.Contains(err.Error(), "Wednesday") || !strings.Contains(err.Error(), "overlap") {
		t.Fatalf("unexpected message: %v", err)
	}

	inverted := WeeklyAvailability{Monday: {{Start: MustClock("10:00"), End: MustClock("09:00")}}}
	if inverted.Validate() == nil {
		t.Fatal("expected inverted slot to be rejected")
	}
}

func TestWeeklyAvailabilityEdits(t *testing.T) {
	var w WeeklyAvailability
	if err := w.AddSlot(Monday, MustSlot("09:00", "09:30")); err != nil {
		t.Fatalf("AddSlot: %v", err)
	}
	if err := w.AddSlot(Monday, MustSlot("10:00", "10:30")); err != nil {
		t.Fatalf("AddSlot: %v", err)
	}
	if err := w.AddSlot(Weekday(9), MustSlot("10:00", "10:30")); err == nil {
		t.Fatal("expected invalid day to fail")
	}

	snapshot := w.Clone()
	if err := w.UpdateSlot(Monday, 1, MustSlot("11:00", "11:30")); err != nil {
		t.Fatalf("UpdateSlot: %v", err)
	}
	if snapshot.Slots(Monday)[1] != MustSlot("10:00", "10:30") {
		t.Fatal("Clone must not share backing arrays")
	}
	if err := w.UpdateSlot(Monday, 5, MustSlot("11:00", "11:30")); err == nil {
		t.Fatal("expected out of range update to fail")
	}

	if err := w.DeleteSlot(Monday, 0); err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}
	if err := w.DeleteSlot(Monday, 0); err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}
	if _, ok := w[Monday]; ok {
		t.Fatal("expected empty day to be removed")
	}
	if !w.Equal(WeeklyAvailability{Tuesday: nil}) {
		t.Fatal("empty days should compare equal to missing days")
	}
}

func TestDate(t *testing.T) {
	d := MustDate("2026-03-02")
	if d.Weekday() != Monday {
		t.Fatalf("expected Monday, got %s", d.Weekday())
	}
	if d.AddDays(6).Weekday() != Sunday || d.AddDays(6).String() != "2026-03-08" {
		t.Fatalf("unexpected AddDays: %s", d.AddDays(6))
	}
	if !d.Before(MustDate("2026-03-03")) || d.Before(d) || MustDate("2027-01-01").Before(d) {
		t.Fatal("Before is wrong")
	}
	if _, err := ParseDate("2026-02-30"); err == nil {
		t.Fatal("expected impossible date to fail")
	}

	loc := time.FixedZone("UTC+3", 3*60*60)
	at := d.At(MustClock("09:00"), loc)
	if at.UTC().Hour() != 6 {
		t.Fatalf("expected 06:00 UTC, got %s", at.UTC())
	}

	late := time.Date(2026, 3, 1, 22, 30, 0, 0, time.UTC)
	if Today(late, loc) != d {
		t.Fatalf("expected local date to roll over, got %s", Today(late, loc))
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusUpcoming, StatusCompleted, true},
		{StatusUpcoming, StatusCancelled, true},
		{StatusUpcoming, StatusUpcoming, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusUpcoming, false},
		{StatusCancelled, StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: got %v want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestSlotKey(t *testing.T) {
	a := Appointment{DoctorID: "doc-1", Date: MustDate("2026-03-02"), Slot: MustSlot("09:00", "09:30")}
	if got := a.Key().String(); got != "doc-1|2026-03-02|09:00" {
		t.Fatalf("unexpected key %q", got)
	}
	cancelled := StatusChange{To: StatusCancelled, By: "doc-1", Reason: "sick", At: time.Unix(0, 0)}.Apply(a)
	if cancelled.Active() || cancelled.CancelledAt == nil || cancelled.CancelledBy != "doc-1" {
		t.Fatalf("unexpected cancelled appointment: %+v", cancelled)
	}
}
