package salons

import "errors"

var (
	// ErrValidation marks malformed input rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrSalonNotFound is returned when a salon does not exist.
	ErrSalonNotFound = errors.New("salon not found")

	// ErrSalonUnavailable is returned when a salon is not approved for bookings.
	ErrSalonUnavailable = errors.New("salon unavailable")

	// ErrInvalidStatus is returned for an unknown moderation status.
	ErrInvalidStatus = errors.New("invalid salon status")
)
