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

// GormPatientRepository persists patients with GORM.
type GormPatientRepository struct {
	db *gorm.DB
}

func NewGormPatientRepository(db *gorm.DB) repository.PatientRepository {
	return &GormPatientRepository{
		db: db,
	}
}

// GetOrCreate returns the patient row for id, inserting it atomically on
// first contact. The id is the primary key, so duplicates cannot exist.
func (r *GormPatientRepository) GetOrCreate(ctx context.Context, id string, name string) (*entity.Patient, bool, error) {
	now := time.Now().UTC()
	var model models.PatientModel

	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Attrs(models.PatientModel{
			ID:            id,
			Name:          name,
			CreatedAt:     now,
			LastMessageAt: now,
		}).
		FirstOrCreate(&model)

	if result.Error != nil {
		// A concurrent first contact can insert the row between the
		// lookup and the insert; the primary key keeps it unique, so
		// re-read before giving up.
		var existing models.PatientModel
		if ferr := r.db.WithContext(ctx).First(&existing, "id = ?", id).Error; ferr == nil {
			return r.toEntity(&existing), false, nil
		}
		return nil, false, domainErrors.NewInternalError("failed to get or create patient: " + result.Error.Error())
	}

	return r.toEntity(&model), result.RowsAffected > 0, nil
}

// FindByID returns the patient or a not-found error.
func (r *GormPatientRepository) FindByID(ctx context.Context, id string) (*entity.Patient, error) {
	var model models.PatientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("patient not found")
		}
		return nil, domainErrors.NewInternalError("failed to find patient: " + err.Error())
	}

	return r.toEntity(&model), nil
}

// FindAll pages patients by most recent activity.
func (r *GormPatientRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Patient, error) {
	var rows []models.PatientModel
	err := r.db.WithContext(ctx).
		Order("last_message_at desc").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error

	if err != nil {
		return nil, domainErrors.NewInternalError("failed to list patients: " + err.Error())
	}

	patients := make([]*entity.Patient, 0, len(rows))
	for i := range rows {
		patients = append(patients, r.toEntity(&rows[i]))
	}
	return patients, nil
}

// TouchLastMessage bumps last_message_at.
func (r *GormPatientRepository) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.PatientModel{}).
		Where("id = ?", id).
		Update("last_message_at", at.UTC())

	if result.Error != nil {
		return domainErrors.NewInternalError("failed to touch patient: " + result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return domainErrors.NewNotFoundError("patient not found")
	}
	return nil
}

// UpdateName fills the patient's name in.
func (r *GormPatientRepository) UpdateName(ctx context.Context, id string, name string) error {
	result := r.db.WithContext(ctx).
		Model(&models.PatientModel{}).
		Where("id = ?", id).
		Update("name", name)

	if result.Error != nil {
		return domainErrors.NewInternalError("failed to update patient name: " + result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return domainErrors.NewNotFoundError("patient not found")
	}
	return nil
}

// Count returns the total number of patients.
func (r *GormPatientRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PatientModel{}).Count(&count).Error; err != nil {
		return 0, domainErrors.NewInternalError("failed to count patients: " + err.Error())
	}
	return count, nil
}

func (r *GormPatientRepository) toEntity(model *models.PatientModel) *entity.Patient {
	return entity.ReconstructPatient(model.ID, model.Name, model.CreatedAt, model.LastMessageAt)
}
