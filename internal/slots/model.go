package slots

import "time"

// refDate anchors slot clock times. Start and end times are times-of-day; the
// calendar day lives in Date. Keeping them apart avoids DST and rounding
// surprises when stepping windows in minutes.
var refDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Slot is a fixed time window on a given day at a salon with finite booking
// capacity.
type Slot struct {
	ID          string    `json:"id"`
	SalonID     string    `json:"salon_id"`
	Date        time.Time `json:"date"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Capacity    int       `json:"capacity"`
	BookedCount int       `json:"booked_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Available reports whether a new booking fits.
func (s *Slot) Available() bool {
	return s.BookedCount < s.Capacity
}

// ClockTime converts minutes since midnight to a clock value anchored to the
// reference date.
func ClockTime(minutes int) time.Time {
	return refDate.Add(time.Duration(minutes) * time.Minute)
}

// MinutesOfDay converts an anchored clock value back to minutes since
// midnight.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
