package slots

import "errors"

var (
	// ErrSlotNotFound is returned when a slot does not exist.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSlotFull is returned when a reservation would exceed capacity. The
	// condition is terminal for the caller; there is no queueing.
	ErrSlotFull = errors.New("slot is fully booked")

	// ErrSlotHasBookings blocks deleting a slot with reserved capacity.
	ErrSlotHasBookings = errors.New("slot has active bookings")

	// ErrCapacityBelowBooked blocks shrinking capacity under the current
	// booked count.
	ErrCapacityBelowBooked = errors.New("capacity below booked count")

	// ErrInvalidCapacity rejects a capacity that is not a positive number
	// before any row is touched.
	ErrInvalidCapacity = errors.New("capacity must be positive")

	// ErrReleaseUnderflow signals a release on a slot whose booked count is
	// already zero. Correct usage never hits this; callers log it as a
	// consistency error instead of hiding it.
	ErrReleaseUnderflow = errors.New("release on empty slot")

	// ErrDuplicateSlot is returned when a slot already exists at the same
	// salon, date and start time.
	ErrDuplicateSlot = errors.New("slot already exists")
)
