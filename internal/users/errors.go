package users

import "errors"

// ErrUserNotFound is returned when a user does not exist.
var ErrUserNotFound = errors.New("user not found")
