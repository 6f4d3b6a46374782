package errors

import "errors"

var (
	ErrNotFound = errors.New("task not found")

	ErrInvalidID = errors.New("invalid task ID format")

	ErrCapacityExceeded = errors.New("daily task capacity exceeded")

	ErrIllegalTransition = errors.New("illegal task status transition")

	ErrEmptyBatch = errors.New("task batch has no rooms")
)
