package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	ErrInvalidDateRange = errors.New("check-in date must not be after check-out date")

	ErrPastCheckIn = errors.New("check-in date is in the past")

	ErrRoomUnavailable = errors.New("room is not available for the requested dates")

	ErrIllegalTransition = errors.New("illegal reservation status transition")
)
