package repositories

import "errors"

var (
	// ErrNotFound reports that a referenced user, post or session does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInconsistent reports a dangling reference found while joining a view.
	ErrInconsistent = errors.New("inconsistent data")
	// ErrUsernameTaken is returned when creating a user whose username exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrValidation wraps field-level validation failures.
	ErrValidation = errors.New("validation failed")
)
