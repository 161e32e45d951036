package engine

import "errors"

// Engine failures are deterministic: the same inputs always fail the
// same way, so none of these are retriable.
var (
	ErrInvalidRate       = errors.New("invalid rate")
	ErrInvalidTenure     = errors.New("invalid tenure")
	ErrInvalidPrepayment = errors.New("invalid prepayment")
	ErrEmptySchedule     = errors.New("empty schedule")
)
