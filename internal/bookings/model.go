package bookings

import "time"

// Status is a booking's lifecycle state.
type Status string

const (
	StatusBooked     Status = "booked"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// Active reports whether the booking still holds a slot-capacity unit.
func (s Status) Active() bool {
	return s == StatusBooked || s == StatusInProgress
}

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

var transitions = map[Status][]Status{
	StatusBooked:     {StatusInProgress, StatusCancelled, StatusCompleted, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusNoShow},
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Booking ties one user to one salon, service and slot. Its end time is
// computed from the slot start plus the service duration and may extend past
// the slot's own window. Bookings are never hard-deleted; they only move
// through statuses.
type Booking struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	SalonID          string     `json:"salon_id"`
	ServiceID        string     `json:"service_id"`
	SlotID           string     `json:"slot_id"`
	StaffID          string     `json:"staff_id,omitempty"`
	BookingDate      time.Time  `json:"booking_date"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          time.Time  `json:"end_time"`
	Status           Status     `json:"status"`
	QRCode           string     `json:"qr_code"`
	Notes            string     `json:"notes,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	ServiceStartedAt *time.Time `json:"service_started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CompletedBy      string     `json:"completed_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
