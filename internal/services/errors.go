package services

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrSlotUnavailable   = errors.New("no available slot for the selected date")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrUnauthorized      = errors.New("not allowed to perform this action")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("resource was modified concurrently")
	ErrTourHasBookings   = errors.New("tour has booked dates")
)
