package repository

import (
	"context"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
)

// InteractionRepository persists the append-only triage log.
// There is deliberately no Update or Delete: history is immutable.
type InteractionRepository interface {
	// Save appends one interaction.
	Save(ctx context.Context, interaction *entity.Interaction) error

	// FindByPatientID pages a patient's history, newest first.
	FindByPatientID(ctx context.Context, patientID string, limit, offset int) ([]*entity.Interaction, error)

	// CountByPatient returns how many interactions a patient has.
	CountByPatient(ctx context.Context, patientID string) (int64, error)

	// Count returns the total number of interactions.
	Count(ctx context.Context) (int64, error)
}
