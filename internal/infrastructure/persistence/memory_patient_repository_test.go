package persistence

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryPatientRepository_GetOrCreateIsIdempotent(t *testing.T) {
	repo := NewMemoryPatientRepository()
	ctx := context.Background()

	first, created, err := repo.GetOrCreate(ctx, "5511999999999", "Maria")
	if err != nil {
		t.Fatalf("first GetOrCreate failed: %v", err)
	}
	if !created {
		t.Error("first contact should report created=true")
	}

	second, created, err := repo.GetOrCreate(ctx, "5511999999999", "")
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if created {
		t.Error("second contact should report created=false")
	}
	if second.Name() != first.Name() {
		t.Errorf("second contact changed the name: %q -> %q", first.Name(), second.Name())
	}

	count, _ := repo.Count(ctx)
	if count != 1 {
		t.Errorf("expected exactly one patient row, got %d", count)
	}
}

func TestMemoryPatientRepository_ConcurrentFirstContact(t *testing.T) {
	repo := NewMemoryPatientRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := repo.GetOrCreate(ctx, "5511988887777", "")
			if err != nil {
				t.Errorf("GetOrCreate failed: %v", err)
				return
			}
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if createdCount != 1 {
		t.Errorf("expected exactly one goroutine to create the row, got %d", createdCount)
	}
	count, _ := repo.Count(ctx)
	if count != 1 {
		t.Errorf("expected one patient row, got %d", count)
	}
}

func TestMemoryPatientRepository_TouchUpdatesOrdering(t *testing.T) {
	repo := NewMemoryPatientRepository()
	ctx := context.Background()

	_, _, _ = repo.GetOrCreate(ctx, "a", "")
	_, _, _ = repo.GetOrCreate(ctx, "b", "")

	if err := repo.TouchLastMessage(ctx, "a", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("TouchLastMessage failed: %v", err)
	}

	patients, err := repo.FindAll(ctx, 10, 0)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(patients) != 2 {
		t.Fatalf("expected 2 patients, got %d", len(patients))
	}
	if patients[0].ID() != "a" {
		t.Errorf("most recently active patient should sort first, got %q", patients[0].ID())
	}
}

func TestMemoryPatientRepository_UpdateNameUnknownPatient(t *testing.T) {
	repo := NewMemoryPatientRepository()
	if err := repo.UpdateName(context.Background(), "ghost", "X"); err == nil {
		t.Error("expected not-found error for unknown patient")
	}
}
