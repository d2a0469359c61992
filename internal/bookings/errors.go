package bookings

import "errors"

var (
	// ErrBookingNotFound is returned when a booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrDuplicateBooking is returned when the user already holds an active
	// booking for the slot.
	ErrDuplicateBooking = errors.New("active booking already exists for this slot")

	// ErrInvalidTransition is returned when a lifecycle action is attempted
	// from a state that does not permit it.
	ErrInvalidTransition = errors.New("booking status does not permit this action")

	// ErrPermissionDenied is returned when the access policy rejects the
	// actor.
	ErrPermissionDenied = errors.New("not permitted")

	// ErrQRCodeExhausted is returned when repeated QR-code collisions keep
	// the create transaction from committing.
	ErrQRCodeExhausted = errors.New("could not issue a unique qr code")

	// ErrValidation marks malformed input rejected before any mutation.
	ErrValidation = errors.New("validation failed")
)
