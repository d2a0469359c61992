package services

import "errors"

var (
	// ErrServiceNotFound is returned when a service does not exist.
	ErrServiceNotFound = errors.New("service not found")

	// ErrServiceInactive is returned when a booking targets a deactivated
	// service.
	ErrServiceInactive = errors.New("service is not active")

	// ErrValidation marks malformed input rejected before any mutation.
	ErrValidation = errors.New("validation failed")
)
