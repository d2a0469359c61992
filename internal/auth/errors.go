package auth

import "errors"

var (
	// ErrInvalidPhone is returned for numbers that cannot receive an OTP.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrCodeMismatch is returned when the submitted code does not match.
	ErrCodeMismatch = errors.New("code does not match")

	// ErrCodeExpired is returned when no code is pending for the phone.
	ErrCodeExpired = errors.New("code expired or never issued")

	// ErrTooManyAttempts is returned once the verification attempt cap is
	// hit; the pending code is discarded.
	ErrTooManyAttempts = errors.New("too many verification attempts")

	// ErrInvalidToken is returned for tokens that fail signature or claim
	// checks.
	ErrInvalidToken = errors.New("invalid token")
)
