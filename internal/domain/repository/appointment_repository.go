package repository

import (
	"context"
	"time"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
)

// AppointmentRepository persists booked consultation slots.
type AppointmentRepository interface {
	// Save persists a new appointment.
	Save(ctx context.Context, appointment *entity.Appointment) error

	// FindByID returns the appointment or a not-found error.
	FindByID(ctx context.Context, id string) (*entity.Appointment, error)

	// FindByPatientID returns a patient's appointments, soonest first.
	FindByPatientID(ctx context.Context, patientID string) ([]*entity.Appointment, error)

	// FindOverlapping returns scheduled appointments intersecting [from, to).
	// Cancelled appointments do not occupy slots and are excluded.
	FindOverlapping(ctx context.Context, from, to time.Time) ([]*entity.Appointment, error)

	// UpdateStatus transitions the appointment's lifecycle state.
	UpdateStatus(ctx context.Context, id string, status entity.AppointmentStatus) error
}
