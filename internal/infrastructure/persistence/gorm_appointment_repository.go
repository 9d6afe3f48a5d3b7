package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/repository"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/persistence/models"
	domainErrors "github.com/odontoflow/odontoflow/gateway/pkg/errors"
)

// GormAppointmentRepository persists appointments with GORM.
type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) repository.AppointmentRepository {
	return &GormAppointmentRepository{
		db: db,
	}
}

// Save persists a new appointment.
func (r *GormAppointmentRepository) Save(ctx context.Context, appointment *entity.Appointment) error {
	model := r.toModel(appointment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domainErrors.NewInternalError("failed to save appointment: " + err.Error())
	}
	return nil
}

// FindByID returns the appointment or a not-found error.
func (r *GormAppointmentRepository) FindByID(ctx context.Context, id string) (*entity.Appointment, error) {
	var model models.AppointmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("appointment not found")
		}
		return nil, domainErrors.NewInternalError("failed to find appointment: " + err.Error())
	}
	return r.toEntity(&model), nil
}

// FindByPatientID returns a patient's appointments, soonest first.
func (r *GormAppointmentRepository) FindByPatientID(ctx context.Context, patientID string) ([]*entity.Appointment, error) {
	var rows []models.AppointmentModel
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("starts_at asc").
		Find(&rows).Error

	if err != nil {
		return nil, domainErrors.NewInternalError("failed to find appointments: " + err.Error())
	}

	appointments := make([]*entity.Appointment, 0, len(rows))
	for i := range rows {
		appointments = append(appointments, r.toEntity(&rows[i]))
	}
	return appointments, nil
}

// FindOverlapping returns scheduled appointments intersecting [from, to).
func (r *GormAppointmentRepository) FindOverlapping(ctx context.Context, from, to time.Time) ([]*entity.Appointment, error) {
	var rows []models.AppointmentModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND starts_at < ? AND ends_at > ?", string(entity.AppointmentScheduled), to.UTC(), from.UTC()).
		Order("starts_at asc").
		Find(&rows).Error

	if err != nil {
		return nil, domainErrors.NewInternalError("failed to find overlapping appointments: " + err.Error())
	}

	appointments := make([]*entity.Appointment, 0, len(rows))
	for i := range rows {
		appointments = append(appointments, r.toEntity(&rows[i]))
	}
	return appointments, nil
}

// UpdateStatus transitions the appointment's lifecycle state.
func (r *GormAppointmentRepository) UpdateStatus(ctx context.Context, id string, status entity.AppointmentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.AppointmentModel{}).
		Where("id = ?", id).
		Update("status", string(status))

	if result.Error != nil {
		return domainErrors.NewInternalError("failed to update appointment status: " + result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return domainErrors.NewNotFoundError("appointment not found")
	}
	return nil
}

func (r *GormAppointmentRepository) toModel(appointment *entity.Appointment) *models.AppointmentModel {
	return &models.AppointmentModel{
		ID:        appointment.ID(),
		PatientID: appointment.PatientID(),
		StartsAt:  appointment.StartsAt().UTC(),
		EndsAt:    appointment.EndsAt().UTC(),
		Status:    string(appointment.Status()),
		Notes:     appointment.Notes(),
		CreatedAt: appointment.CreatedAt(),
	}
}

func (r *GormAppointmentRepository) toEntity(model *models.AppointmentModel) *entity.Appointment {
	return entity.ReconstructAppointment(
		model.ID,
		model.PatientID,
		model.StartsAt,
		model.EndsAt,
		entity.AppointmentStatus(model.Status),
		model.Notes,
		model.CreatedAt,
	)
}
