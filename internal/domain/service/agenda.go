package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/repository"
	apperrors "github.com/odontoflow/odontoflow/gateway/pkg/errors"
)

// ClinicHours describes the booking grid: consultations start on
// fixed boundaries between opening and closing time.
type ClinicHours struct {
	Location    *time.Location
	OpenHour    int
	CloseHour   int
	SlotMinutes int
}

func (h ClinicHours) slotDuration() time.Duration {
	return time.Duration(h.SlotMinutes) * time.Minute
}

// dayRange returns the open and close instants for the day containing t,
// in the clinic timezone.
func (h ClinicHours) dayRange(t time.Time) (time.Time, time.Time) {
	local := t.In(h.Location)
	open := time.Date(local.Year(), local.Month(), local.Day(), h.OpenHour, 0, 0, 0, h.Location)
	close := time.Date(local.Year(), local.Month(), local.Day(), h.CloseHour, 0, 0, 0, h.Location)
	return open, close
}

// Slot is a bookable consultation interval.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Agenda books consultation slots against the local appointments table.
type Agenda struct {
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	hours        ClinicHours
}

func NewAgenda(
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	hours ClinicHours,
) *Agenda {
	return &Agenda{
		appointments: appointments,
		patients:     patients,
		hours:        hours,
	}
}

// FreeSlots returns the day's slots not occupied by a scheduled
// appointment. A slot is busy when it intersects an appointment, i.e.
// unless it ends before the appointment starts or starts after it ends.
func (a *Agenda) FreeSlots(ctx context.Context, day time.Time) ([]Slot, error) {
	open, close := a.hours.dayRange(day)

	booked, err := a.appointments.FindOverlapping(ctx, open, close)
	if err != nil {
		return nil, err
	}

	step := a.hours.slotDuration()
	var free []Slot
	for start := open; !start.Add(step).After(close); start = start.Add(step) {
		end := start.Add(step)
		if !slotTaken(booked, start, end) {
			free = append(free, Slot{Start: start, End: end})
		}
	}
	return free, nil
}

func slotTaken(booked []*entity.Appointment, start, end time.Time) bool {
	for _, appt := range booked {
		if appt.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// Book reserves the slot starting at startsAt for the patient.
// The start must lie on the slot grid inside business hours, and the
// slot must be free; double-booking yields a conflict error.
func (a *Agenda) Book(ctx context.Context, patientID string, startsAt time.Time, notes string) (*entity.Appointment, error) {
	if _, err := a.patients.FindByID(ctx, patientID); err != nil {
		return nil, err
	}

	startsAt = startsAt.In(a.hours.Location)
	open, close := a.hours.dayRange(startsAt)
	endsAt := startsAt.Add(a.hours.slotDuration())

	if startsAt.Before(open) || endsAt.After(close) {
		return nil, apperrors.NewInvalidInputError("appointment outside business hours")
	}
	if startsAt.Sub(open)%a.hours.slotDuration() != 0 {
		return nil, apperrors.NewInvalidInputError("appointment not aligned to the slot grid")
	}

	conflicts, err := a.appointments.FindOverlapping(ctx, startsAt, endsAt)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, apperrors.NewConflictError("slot already booked")
	}

	appt, err := entity.NewAppointment(uuid.New().String(), patientID, startsAt, endsAt, notes)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := a.appointments.Save(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// Cancel frees a booked slot and returns the cancelled appointment.
// Cancelling twice is a conflict.
func (a *Agenda) Cancel(ctx context.Context, id string) (*entity.Appointment, error) {
	appt, err := a.appointments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := appt.Cancel(); err != nil {
		return nil, apperrors.NewConflictError(err.Error())
	}
	if err := a.appointments.UpdateStatus(ctx, id, entity.AppointmentCancelled); err != nil {
		return nil, err
	}
	return appt, nil
}

// ForPatient lists a patient's appointments, soonest first.
func (a *Agenda) ForPatient(ctx context.Context, patientID string) ([]*entity.Appointment, error) {
	return a.appointments.FindByPatientID(ctx, patientID)
}

// Hours exposes the booking grid, mainly so callers can parse dates in
// the clinic timezone.
func (a *Agenda) Hours() ClinicHours {
	return a.hours
}
