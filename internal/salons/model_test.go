package salons

import (
	"testing"
	"time"
)

func TestWindowResolvesMinutes(t *testing.T) {
	hours := WeeklyHours{
		"monday": {Open: "09:00", Close: "17:30"},
	}
	open, close, ok := hours.Window(time.Monday)
	if !ok {
		t.Fatal("monday should be open")
	}
	if open != 9*60 || close != 17*60+30 {
		t.Fatalf("window = %d-%d, want 540-1050", open, close)
	}
}

func TestWindowSkipsBadDays(t *testing.T) {
	cases := []struct {
		name  string
		hours WeeklyHours
		day   time.Weekday
	}{
		{"missing day", WeeklyHours{}, time.Monday},
		{"closed flag", WeeklyHours{"monday": {Open: "09:00", Close: "17:00", Closed: true}}, time.Monday},
		{"malformed open", WeeklyHours{"monday": {Open: "9am", Close: "17:00"}}, time.Monday},
		{"malformed close", WeeklyHours{"monday": {Open: "09:00", Close: "late"}}, time.Monday},
		{"inverted window", WeeklyHours{"monday": {Open: "17:00", Close: "09:00"}}, time.Monday},
		{"zero-length window", WeeklyHours{"monday": {Open: "09:00", Close: "09:00"}}, time.Monday},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, ok := tc.hours.Window(tc.day); ok {
				t.Fatal("expected ok=false")
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusSuspended} {
		if !ValidStatus(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	if ValidStatus("deleted") {
		t.Error("unknown status accepted")
	}
}

func TestBookable(t *testing.T) {
	if !(&Salon{Status: StatusApproved}).Bookable() {
		t.Fatal("approved salons accept bookings")
	}
	for _, s := range []Status{StatusPending, StatusRejected, StatusSuspended} {
		if (&Salon{Status: s}).Bookable() {
			t.Fatalf("%s salon must not be bookable", s)
		}
	}
}
