package services

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrUnauthenticated        = errors.New("not authenticated")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrTherapistNotFound      = errors.New("therapist not found")
	ErrSlotTaken              = errors.New("slot already requested")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)
