package entity

import "errors"

var (
	// Patient errors
	ErrInvalidPatientID = errors.New("invalid patient id")

	// Interaction errors
	ErrInvalidInteractionID = errors.New("invalid interaction id")
	ErrInvalidChannel       = errors.New("invalid channel")
	ErrMissingPatientID     = errors.New("missing patient id")

	// Appointment errors
	ErrInvalidAppointmentID   = errors.New("invalid appointment id")
	ErrInvalidAppointmentTime = errors.New("invalid appointment time range")
	ErrAppointmentCancelled   = errors.New("appointment already cancelled")
)
