package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/repository"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/persistence/models"
	domainErrors "github.com/odontoflow/odontoflow/gateway/pkg/errors"
)

// GormInteractionRepository persists the triage log with GORM.
type GormInteractionRepository struct {
	db *gorm.DB
}

func NewGormInteractionRepository(db *gorm.DB) repository.InteractionRepository {
	return &GormInteractionRepository{
		db: db,
	}
}

// Save appends one interaction. Create is used instead of Save so an
// id collision fails loudly instead of rewriting history.
func (r *GormInteractionRepository) Save(ctx context.Context, interaction *entity.Interaction) error {
	model := r.toModel(interaction)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domainErrors.NewInternalError("failed to save interaction: " + err.Error())
	}
	return nil
}

// FindByPatientID pages a patient's history, newest first.
func (r *GormInteractionRepository) FindByPatientID(ctx context.Context, patientID string, limit, offset int) ([]*entity.Interaction, error) {
	var rows []models.InteractionModel
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error

	if err != nil {
		return nil, domainErrors.NewInternalError("failed to find interactions: " + err.Error())
	}

	interactions := make([]*entity.Interaction, 0, len(rows))
	for i := range rows {
		interactions = append(interactions, r.toEntity(&rows[i]))
	}
	return interactions, nil
}

// CountByPatient returns how many interactions a patient has.
func (r *GormInteractionRepository) CountByPatient(ctx context.Context, patientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InteractionModel{}).
		Where("patient_id = ?", patientID).
		Count(&count).Error

	if err != nil {
		return 0, domainErrors.NewInternalError("failed to count interactions: " + err.Error())
	}
	return count, nil
}

// Count returns the total number of interactions.
func (r *GormInteractionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InteractionModel{}).Count(&count).Error; err != nil {
		return 0, domainErrors.NewInternalError("failed to count interactions: " + err.Error())
	}
	return count, nil
}

func (r *GormInteractionRepository) toModel(interaction *entity.Interaction) *models.InteractionModel {
	return &models.InteractionModel{
		ID:          interaction.ID(),
		PatientID:   interaction.PatientID(),
		Channel:     string(interaction.Channel()),
		MessageText: interaction.MessageText(),
		Intent:      string(interaction.Intent().Label()),
		Confidence:  interaction.Intent().Confidence(),
		ReplyText:   interaction.ReplyText(),
		CreatedAt:   interaction.CreatedAt(),
	}
}

func (r *GormInteractionRepository) toEntity(model *models.InteractionModel) *entity.Interaction {
	intent := valueobject.NewIntent(valueobject.IntentLabel(model.Intent), model.Confidence)
	return entity.ReconstructInteraction(
		model.ID,
		model.PatientID,
		entity.Channel(model.Channel),
		model.MessageText,
		intent,
		model.ReplyText,
		model.CreatedAt,
	)
}
