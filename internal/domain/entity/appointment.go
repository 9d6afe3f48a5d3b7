package entity

import "time"

// AppointmentStatus is the lifecycle state of a booked slot.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment is a consultation slot booked for a patient.
type Appointment struct {
	id        string
	patientID string
	startsAt  time.Time
	endsAt    time.Time
	status    AppointmentStatus
	notes     string
	createdAt time.Time
}

// NewAppointment books a slot. The time range must be non-empty and ordered.
func NewAppointment(id, patientID string, startsAt, endsAt time.Time, notes string) (*Appointment, error) {
	if id == "" {
		return nil, ErrInvalidAppointmentID
	}
	if patientID == "" {
		return nil, ErrMissingPatientID
	}
	if startsAt.IsZero() || endsAt.IsZero() || !endsAt.After(startsAt) {
		return nil, ErrInvalidAppointmentTime
	}

	return &Appointment{
		id:        id,
		patientID: patientID,
		startsAt:  startsAt.UTC(),
		endsAt:    endsAt.UTC(),
		status:    AppointmentScheduled,
		notes:     notes,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructAppointment rebuilds an appointment from the persistence layer.
func ReconstructAppointment(
	id, patientID string,
	startsAt, endsAt time.Time,
	status AppointmentStatus,
	notes string,
	createdAt time.Time,
) *Appointment {
	return &Appointment{
		id:        id,
		patientID: patientID,
		startsAt:  startsAt,
		endsAt:    endsAt,
		status:    status,
		notes:     notes,
		createdAt: createdAt,
	}
}

func (a *Appointment) ID() string {
	return a.id
}

func (a *Appointment) PatientID() string {
	return a.patientID
}

func (a *Appointment) StartsAt() time.Time {
	return a.startsAt
}

func (a *Appointment) EndsAt() time.Time {
	return a.endsAt
}

func (a *Appointment) Status() AppointmentStatus {
	return a.status
}

func (a *Appointment) Notes() string {
	return a.notes
}

func (a *Appointment) CreatedAt() time.Time {
	return a.createdAt
}

// IsActive reports whether the appointment still occupies its slot.
func (a *Appointment) IsActive() bool {
	return a.status == AppointmentScheduled
}

// Cancel frees the slot. Cancelling twice is an error so callers can
// distinguish a no-op from a real state change.
func (a *Appointment) Cancel() error {
	if a.status == AppointmentCancelled {
		return ErrAppointmentCancelled
	}
	a.status = AppointmentCancelled
	return nil
}

// Overlaps reports whether the appointment occupies any part of [from, to).
func (a *Appointment) Overlaps(from, to time.Time) bool {
	return a.startsAt.Before(to) && a.endsAt.After(from)
}
