package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/service"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/eventbus"
	apperrors "github.com/odontoflow/odontoflow/gateway/pkg/errors"
)

// AgendaUseCase fronts the agenda for the HTTP API and the CLI: it
// normalizes sender ids the same way triage does and notifies observers
// about bookings.
type AgendaUseCase struct {
	agenda *service.Agenda
	bus    eventbus.Bus
	logger *zap.Logger
}

func NewAgendaUseCase(agenda *service.Agenda, bus eventbus.Bus, logger *zap.Logger) *AgendaUseCase {
	return &AgendaUseCase{
		agenda: agenda,
		bus:    bus,
		logger: logger,
	}
}

// FreeSlots lists the open consultation slots for the day.
func (uc *AgendaUseCase) FreeSlots(ctx context.Context, day time.Time) ([]service.Slot, error) {
	return uc.agenda.FreeSlots(ctx, day)
}

// Location is the clinic timezone, used to interpret bare dates.
func (uc *AgendaUseCase) Location() *time.Location {
	return uc.agenda.Hours().Location
}

// Book reserves a slot for the sender. The sender id goes through the
// same normalization as inbound messages, so "5511...@s.whatsapp.net"
// books for patient "5511...".
func (uc *AgendaUseCase) Book(ctx context.Context, senderID string, startsAt time.Time, notes string) (*entity.Appointment, error) {
	sender, err := valueobject.NewSender(senderID, "")
	if err != nil {
		if errors.Is(err, valueobject.ErrEmptySenderID) {
			return nil, apperrors.NewInvalidInputError("sender_id must not be empty")
		}
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	appt, err := uc.agenda.Book(ctx, sender.ID(), startsAt, notes)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Appointment booked",
		zap.String("appointment_id", appt.ID()),
		zap.String("patient_id", appt.PatientID()),
		zap.Time("starts_at", appt.StartsAt()),
	)

	if uc.bus != nil {
		uc.bus.Publish(ctx, eventbus.NewEvent(eventbus.EventTypeAppointmentBooked, eventbus.AppointmentBookedPayload{
			AppointmentID: appt.ID(),
			PatientID:     appt.PatientID(),
			StartsAt:      appt.StartsAt(),
			EndsAt:        appt.EndsAt(),
		}))
	}

	return appt, nil
}

// Cancel releases a booked slot.
func (uc *AgendaUseCase) Cancel(ctx context.Context, id string) (*entity.Appointment, error) {
	appt, err := uc.agenda.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Appointment cancelled",
		zap.String("appointment_id", appt.ID()),
		zap.String("patient_id", appt.PatientID()),
	)

	if uc.bus != nil {
		uc.bus.Publish(ctx, eventbus.NewEvent(eventbus.EventTypeAppointmentCancelled, eventbus.AppointmentCancelledPayload{
			AppointmentID: appt.ID(),
			PatientID:     appt.PatientID(),
		}))
	}

	return appt, nil
}

// ForPatient lists a patient's appointments.
func (uc *AgendaUseCase) ForPatient(ctx context.Context, patientID string) ([]*entity.Appointment, error) {
	return uc.agenda.ForPatient(ctx, patientID)
}
