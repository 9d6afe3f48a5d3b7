package service

import (
	"context"
	"testing"
	"time"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	apperrors "github.com/odontoflow/odontoflow/gateway/pkg/errors"
)

type stubPatientRepo struct {
	ids map[string]bool
}

func (s *stubPatientRepo) GetOrCreate(ctx context.Context, id, name string) (*entity.Patient, bool, error) {
	p, _ := entity.NewPatient(id, name)
	created := !s.ids[id]
	s.ids[id] = true
	return p, created, nil
}

func (s *stubPatientRepo) FindByID(ctx context.Context, id string) (*entity.Patient, error) {
	if !s.ids[id] {
		return nil, apperrors.NewNotFoundError("patient not found")
	}
	p, _ := entity.NewPatient(id, "")
	return p, nil
}

func (s *stubPatientRepo) FindAll(ctx context.Context, limit, offset int) ([]*entity.Patient, error) {
	return nil, nil
}

func (s *stubPatientRepo) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	return nil
}

func (s *stubPatientRepo) UpdateName(ctx context.Context, id, name string) error {
	return nil
}

func (s *stubPatientRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(s.ids)), nil
}

type stubApptRepo struct {
	saved    []*entity.Appointment
	statuses map[string]entity.AppointmentStatus
}

func newStubApptRepo() *stubApptRepo {
	return &stubApptRepo{statuses: make(map[string]entity.AppointmentStatus)}
}

func (s *stubApptRepo) Save(ctx context.Context, appt *entity.Appointment) error {
	s.saved = append(s.saved, appt)
	s.statuses[appt.ID()] = appt.Status()
	return nil
}

func (s *stubApptRepo) FindByID(ctx context.Context, id string) (*entity.Appointment, error) {
	for _, a := range s.saved {
		if a.ID() == id {
			return entity.ReconstructAppointment(
				a.ID(), a.PatientID(), a.StartsAt(), a.EndsAt(), s.statuses[id], a.Notes(), a.CreatedAt(),
			), nil
		}
	}
	return nil, apperrors.NewNotFoundError("appointment not found")
}

func (s *stubApptRepo) FindByPatientID(ctx context.Context, patientID string) ([]*entity.Appointment, error) {
	var out []*entity.Appointment
	for _, a := range s.saved {
		if a.PatientID() == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubApptRepo) FindOverlapping(ctx context.Context, from, to time.Time) ([]*entity.Appointment, error) {
	var out []*entity.Appointment
	for _, a := range s.saved {
		if s.statuses[a.ID()] == entity.AppointmentScheduled && a.Overlaps(from, to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubApptRepo) UpdateStatus(ctx context.Context, id string, status entity.AppointmentStatus) error {
	if _, ok := s.statuses[id]; !ok {
		return apperrors.NewNotFoundError("appointment not found")
	}
	s.statuses[id] = status
	return nil
}

func testHours() ClinicHours {
	return ClinicHours{Location: time.UTC, OpenHour: 9, CloseHour: 18, SlotMinutes: 60}
}

func testAgenda(appts *stubApptRepo, knownPatients ...string) *Agenda {
	ids := make(map[string]bool)
	for _, id := range knownPatients {
		ids[id] = true
	}
	return NewAgenda(appts, &stubPatientRepo{ids: ids}, testHours())
}

func day(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

// === Free slots ===

func TestFreeSlots_FullDayWhenNothingBooked(t *testing.T) {
	agenda := testAgenda(newStubApptRepo())

	slots, err := agenda.FreeSlots(context.Background(), day(0, 0))
	if err != nil {
		t.Fatalf("FreeSlots failed: %v", err)
	}
	if len(slots) != 9 {
		t.Fatalf("expected 9 one-hour slots between 09:00 and 18:00, got %d", len(slots))
	}
	if !slots[0].Start.Equal(day(9, 0)) {
		t.Errorf("first slot starts at %v, want 09:00", slots[0].Start)
	}
	if !slots[8].End.Equal(day(18, 0)) {
		t.Errorf("last slot ends at %v, want 18:00", slots[8].End)
	}
}

func TestFreeSlots_ExcludesBookedSlot(t *testing.T) {
	appts := newStubApptRepo()
	agenda := testAgenda(appts, "5511999999999")

	if _, err := agenda.Book(context.Background(), "5511999999999", day(10, 0), ""); err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	slots, err := agenda.FreeSlots(context.Background(), day(0, 0))
	if err != nil {
		t.Fatalf("FreeSlots failed: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 free slots after booking one, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Start.Equal(day(10, 0)) {
			t.Error("booked 10:00 slot still listed as free")
		}
	}
}

func TestFreeSlots_OverlapBlocksBothNeighbours(t *testing.T) {
	// An off-grid 10:30-11:30 appointment occupies parts of the 10:00
	// and 11:00 slots, so both must disappear.
	appts := newStubApptRepo()
	appt, _ := entity.NewAppointment("a1", "p1", day(10, 30), day(11, 30), "")
	_ = appts.Save(context.Background(), appt)
	agenda := testAgenda(appts)

	slots, err := agenda.FreeSlots(context.Background(), day(0, 0))
	if err != nil {
		t.Fatalf("FreeSlots failed: %v", err)
	}
	for _, s := range slots {
		if s.Start.Equal(day(10, 0)) || s.Start.Equal(day(11, 0)) {
			t.Errorf("slot starting %v should be blocked by the overlapping appointment", s.Start)
		}
	}
	if len(slots) != 7 {
		t.Errorf("expected 7 free slots, got %d", len(slots))
	}
}

func TestFreeSlots_CancelledAppointmentFreesSlot(t *testing.T) {
	appts := newStubApptRepo()
	agenda := testAgenda(appts, "5511999999999")

	appt, err := agenda.Book(context.Background(), "5511999999999", day(14, 0), "")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	cancelled, err := agenda.Cancel(context.Background(), appt.ID())
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status() != entity.AppointmentCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status())
	}

	slots, _ := agenda.FreeSlots(context.Background(), day(0, 0))
	if len(slots) != 9 {
		t.Errorf("expected full day free after cancellation, got %d slots", len(slots))
	}
}

// === Booking ===

func TestBook_RejectsOutsideBusinessHours(t *testing.T) {
	agenda := testAgenda(newStubApptRepo(), "p1")

	for _, start := range []time.Time{day(8, 0), day(18, 0), day(17, 30)} {
		_, err := agenda.Book(context.Background(), "p1", start, "")
		if !apperrors.IsInvalidInput(err) {
			t.Errorf("Book(%v) error = %v, want invalid input", start, err)
		}
	}
}

func TestBook_RejectsOffGridStart(t *testing.T) {
	agenda := testAgenda(newStubApptRepo(), "p1")

	_, err := agenda.Book(context.Background(), "p1", day(10, 30), "")
	if !apperrors.IsInvalidInput(err) {
		t.Errorf("Book error = %v, want invalid input for off-grid start", err)
	}
}

func TestBook_ConflictOnDoubleBooking(t *testing.T) {
	agenda := testAgenda(newStubApptRepo(), "p1", "p2")

	if _, err := agenda.Book(context.Background(), "p1", day(10, 0), ""); err != nil {
		t.Fatalf("first Book failed: %v", err)
	}
	_, err := agenda.Book(context.Background(), "p2", day(10, 0), "")
	if !apperrors.IsConflict(err) {
		t.Errorf("second Book error = %v, want conflict", err)
	}
}

func TestBook_UnknownPatient(t *testing.T) {
	agenda := testAgenda(newStubApptRepo())

	_, err := agenda.Book(context.Background(), "ghost", day(10, 0), "")
	if !apperrors.IsNotFound(err) {
		t.Errorf("Book error = %v, want not found", err)
	}
}

// === Cancellation ===

func TestCancel_Twice(t *testing.T) {
	agenda := testAgenda(newStubApptRepo(), "p1")

	appt, err := agenda.Book(context.Background(), "p1", day(9, 0), "")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, err := agenda.Cancel(context.Background(), appt.ID()); err != nil {
		t.Fatalf("first Cancel failed: %v", err)
	}
	if _, err := agenda.Cancel(context.Background(), appt.ID()); !apperrors.IsConflict(err) {
		t.Errorf("second Cancel error = %v, want conflict", err)
	}
}

func TestCancel_UnknownAppointment(t *testing.T) {
	agenda := testAgenda(newStubApptRepo())

	if _, err := agenda.Cancel(context.Background(), "missing"); !apperrors.IsNotFound(err) {
		t.Errorf("Cancel error = %v, want not found", err)
	}
}
