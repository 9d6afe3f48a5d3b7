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

// MemoryPatientRepository is the in-memory twin used in development and tests.
type MemoryPatientRepository struct {
	mu       sync.RWMutex
	patients map[string]*entity.Patient
}

func NewMemoryPatientRepository() repository.PatientRepository {
	return &MemoryPatientRepository{
		patients: make(map[string]*entity.Patient),
	}
}

// GetOrCreate returns the stored patient or inserts a new one.
func (r *MemoryPatientRepository) GetOrCreate(ctx context.Context, id string, name string) (*entity.Patient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.patients[id]; ok {
		return clonePatient(existing), false, nil
	}

	patient, err := entity.NewPatient(id, name)
	if err != nil {
		return nil, false, errors.NewInvalidInputError(err.Error())
	}
	r.patients[id] = patient
	return clonePatient(patient), true, nil
}

// FindByID returns the patient or a not-found error.
func (r *MemoryPatientRepository) FindByID(ctx context.Context, id string) (*entity.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patient, ok := r.patients[id]
	if !ok {
		return nil, errors.NewNotFoundError("patient not found")
	}
	return clonePatient(patient), nil
}

// FindAll pages patients by most recent activity.
func (r *MemoryPatientRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*entity.Patient, 0, len(r.patients))
	for _, p := range r.patients {
		all = append(all, clonePatient(p))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].LastMessageAt().After(all[j].LastMessageAt())
	})

	if offset >= len(all) {
		return []*entity.Patient{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// TouchLastMessage bumps last_message_at.
func (r *MemoryPatientRepository) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.patients[id]
	if !ok {
		return errors.NewNotFoundError("patient not found")
	}
	patient.Touch(at)
	return nil
}

// UpdateName fills the patient's name in.
func (r *MemoryPatientRepository) UpdateName(ctx context.Context, id string, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.patients[id]
	if !ok {
		return errors.NewNotFoundError("patient not found")
	}
	patient.SetName(name)
	return nil
}

// Count returns the total number of patients.
func (r *MemoryPatientRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.patients)), nil
}

func clonePatient(p *entity.Patient) *entity.Patient {
	return entity.ReconstructPatient(p.ID(), p.Name(), p.CreatedAt(), p.LastMessageAt())
}
