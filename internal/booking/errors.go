package booking

import "errors"

// ErrInvalidBooking is wrapped by every ValidationError so callers can use errors.Is.
var ErrInvalidBooking = errors.New("invalid booking")

// ValidationError names the field and rule a candidate booking violated.
// Reason is surfaced to the requester verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidBooking
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
