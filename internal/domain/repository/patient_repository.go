package repository

import (
	"context"
	"time"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
)

// PatientRepository persists clinic contacts keyed by normalized sender id.
type PatientRepository interface {
	// GetOrCreate returns the patient with the given id, creating it on
	// first contact. The boolean reports whether a new row was created.
	// Creation is idempotent: concurrent first contacts yield one row.
	GetOrCreate(ctx context.Context, id string, name string) (*entity.Patient, bool, error)

	// FindByID returns the patient or a not-found error.
	FindByID(ctx context.Context, id string) (*entity.Patient, error)

	// FindAll pages through patients ordered by most recent activity.
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Patient, error)

	// TouchLastMessage bumps last_message_at for the patient.
	TouchLastMessage(ctx context.Context, id string, at time.Time) error

	// UpdateName fills the name in when a channel reveals it.
	UpdateName(ctx context.Context, id string, name string) error

	// Count returns the total number of patients.
	Count(ctx context.Context) (int64, error)
}
