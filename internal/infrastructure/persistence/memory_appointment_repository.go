package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/repository"
	"github.com/odontoflow/odontoflow/gateway/pkg/errors"
)

// MemoryAppointmentRepository is the in-memory twin used in development and tests.
type MemoryAppointmentRepository struct {
	mu           sync.RWMutex
	appointments map[string]*entity.Appointment
}

func NewMemoryAppointmentRepository() repository.AppointmentRepository {
	return &MemoryAppointmentRepository{
		appointments: make(map[string]*entity.Appointment),
	}
}

// Save persists a new appointment.
func (r *MemoryAppointmentRepository) Save(ctx context.Context, appointment *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[appointment.ID()]; ok {
		return errors.NewAlreadyExistsError("appointment already exists")
	}
	r.appointments[appointment.ID()] = cloneAppointment(appointment)
	return nil
}

// FindByID returns the appointment or a not-found error.
func (r *MemoryAppointmentRepository) FindByID(ctx context.Context, id string) (*entity.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appointments[id]
	if !ok {
		return nil, errors.NewNotFoundError("appointment not found")
	}
	return cloneAppointment(appt), nil
}

// FindByPatientID returns a patient's appointments, soonest first.
func (r *MemoryAppointmentRepository) FindByPatientID(ctx context.Context, patientID string) ([]*entity.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*entity.Appointment
	for _, a := range r.appointments {
		if a.PatientID() == patientID {
			matched = append(matched, cloneAppointment(a))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartsAt().Before(matched[j].StartsAt())
	})
	return matched, nil
}

// FindOverlapping returns scheduled appointments intersecting [from, to).
func (r *MemoryAppointmentRepository) FindOverlapping(ctx context.Context, from, to time.Time) ([]*entity.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*entity.Appointment
	for _, a := range r.appointments {
		if a.IsActive() && a.Overlaps(from, to) {
			matched = append(matched, cloneAppointment(a))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartsAt().Before(matched[j].StartsAt())
	})
	return matched, nil
}

// UpdateStatus transitions the appointment's lifecycle state.
func (r *MemoryAppointmentRepository) UpdateStatus(ctx context.Context, id string, status entity.AppointmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appointments[id]
	if !ok {
		return errors.NewNotFoundError("appointment not found")
	}
	r.appointments[id] = entity.ReconstructAppointment(
		appt.ID(), appt.PatientID(), appt.StartsAt(), appt.EndsAt(), status, appt.Notes(), appt.CreatedAt(),
	)
	return nil
}

func cloneAppointment(a *entity.Appointment) *entity.Appointment {
	return entity.ReconstructAppointment(
		a.ID(), a.PatientID(), a.StartsAt(), a.EndsAt(), a.Status(), a.Notes(), a.CreatedAt(),
	)
}
