package salons

import (
	"fmt"
	"strings"
	"time"
)

// Status is the moderation state of a salon. Only approved salons accept
// bookings.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSuspended Status = "suspended"
)

// ValidStatus reports whether s is one of the known moderation states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSuspended:
		return true
	}
	return false
}

// DayHours is one weekday's window in "15:04" clock strings.
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// WeeklyHours maps lowercase weekday names ("monday") to that day's window.
type WeeklyHours map[string]DayHours

// Window resolves the day's open/close as minutes since midnight. It returns
// ok=false for closed days and malformed or inverted windows, which the slot
// generator treats as "skip this day".
func (w WeeklyHours) Window(weekday time.Weekday) (openMin, closeMin int, ok bool) {
	day, found := w[strings.ToLower(weekday.String())]
	if !found || day.Closed {
		return 0, 0, false
	}
	openMin, err := parseClock(day.Open)
	if err != nil {
		return 0, 0, false
	}
	closeMin, err = parseClock(day.Close)
	if err != nil || closeMin <= openMin {
		return 0, 0, false
	}
	return openMin, closeMin, true
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("salons: bad clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Salon is a bookable business on the platform.
type Salon struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Address             string      `json:"address"`
	Phone               string      `json:"phone"`
	Status              Status      `json:"status"`
	OperatingHours      WeeklyHours `json:"operating_hours"`
	DefaultSlotCapacity int         `json:"default_slot_capacity"`
	ImageURL            string      `json:"image_url,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// Bookable reports whether the salon may accept new bookings.
func (s *Salon) Bookable() bool {
	return s.Status == StatusApproved
}
