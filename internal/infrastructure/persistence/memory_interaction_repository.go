package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/repository"
)

// MemoryInteractionRepository is the in-memory twin used in development and tests.
type MemoryInteractionRepository struct {
	mu           sync.RWMutex
	interactions []*entity.Interaction
}

func NewMemoryInteractionRepository() repository.InteractionRepository {
	return &MemoryInteractionRepository{}
}

// Save appends one interaction.
func (r *MemoryInteractionRepository) Save(ctx context.Context, interaction *entity.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.interactions = append(r.interactions, interaction)
	return nil
}

// FindByPatientID pages a patient's history, newest first.
func (r *MemoryInteractionRepository) FindByPatientID(ctx context.Context, patientID string, limit, offset int) ([]*entity.Interaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*entity.Interaction
	for _, i := range r.interactions {
		if i.PatientID() == patientID {
			matched = append(matched, i)
		}
	}
	sort.SliceStable(matched, func(a, b int) bool {
		return matched[a].CreatedAt().After(matched[b].CreatedAt())
	})

	if offset >= len(matched) {
		return []*entity.Interaction{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// CountByPatient returns how many interactions a patient has.
func (r *MemoryInteractionRepository) CountByPatient(ctx context.Context, patientID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, i := range r.interactions {
		if i.PatientID() == patientID {
			count++
		}
	}
	return count, nil
}

// Count returns the total number of interactions.
func (r *MemoryInteractionRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.interactions)), nil
}
