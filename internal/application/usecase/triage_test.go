package usecase_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/application/usecase"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/repository"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/service"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/eventbus"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/persistence"
	apperrors "github.com/odontoflow/odontoflow/gateway/pkg/errors"
)

// stubTemplates serves a fixed template set; missing combinations fall
// back to the unknown entry, so only the interesting texts are spelled out.
type stubTemplates struct{}

func (stubTemplates) Templates() service.ReplyTemplates {
	return service.ReplyTemplates{
		NameFallback: "cliente",
		Prefix: map[valueobject.PatientStatus]string{
			valueobject.StatusNewLead:         "Olá! ",
			valueobject.StatusExistingPatient: "Olá, {name}! ",
		},
		Replies: map[valueobject.IntentLabel]map[valueobject.PatientStatus]string{
			valueobject.IntentScheduleAppointment: {
				valueobject.StatusNewLead:         "Vamos agendar sua primeira consulta.",
				valueobject.StatusExistingPatient: "Vamos agendar sua consulta.",
			},
			valueobject.IntentUnknown: {
				valueobject.StatusNewLead:         "Como posso ajudar?",
				valueobject.StatusExistingPatient: "Como posso ajudar?",
			},
		},
	}
}

// captureBus records published events for assertions.
type captureBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *captureBus) Publish(ctx context.Context, event eventbus.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *captureBus) Subscribe(eventType string, handler eventbus.Handler)   {}
func (b *captureBus) Unsubscribe(eventType string, handler eventbus.Handler) {}
func (b *captureBus) Close()                                                 {}

func (b *captureBus) byType(eventType string) []eventbus.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []eventbus.Event
	for _, ev := range b.events {
		if ev.Type() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type triageFixture struct {
	uc           *usecase.TriageUseCase
	patients     repository.PatientRepository
	interactions repository.InteractionRepository
	bus          *captureBus
}

func newTriageFixture() *triageFixture {
	patients := persistence.NewMemoryPatientRepository()
	interactions := persistence.NewMemoryInteractionRepository()
	bus := &captureBus{}

	uc := usecase.NewTriageUseCase(
		patients,
		interactions,
		service.NewKeywordClassifier(),
		service.NewTemplateReplyComposer(stubTemplates{}),
		bus,
		zap.NewNop(),
	)

	return &triageFixture{
		uc:           uc,
		patients:     patients,
		interactions: interactions,
		bus:          bus,
	}
}

// === First contact ===

func TestTriage_Execute_NewPatient(t *testing.T) {
	// 1. Setup
	f := newTriageFixture()
	ctx := context.Background()

	// 2. Execute
	result, err := f.uc.Execute(ctx, usecase.TriageCommand{
		SenderID: "+5511999990000",
		Message:  "quero agendar uma consulta",
	})

	// 3. Verify
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Intent.Label() != valueobject.IntentScheduleAppointment {
		t.Errorf("Expected intent schedule_appointment, got %s", result.Intent.Label())
	}
	if !result.IsNewPatient {
		t.Error("Expected is_new_patient true on first contact")
	}
	if result.PatientStatus != valueobject.StatusNewLead {
		t.Errorf("Expected status new_lead, got %s", result.PatientStatus)
	}
	if result.NextAction != valueobject.ActionCollectContactInfo {
		t.Errorf("Expected next action collect_contact_info, got %s", result.NextAction)
	}
	if result.Reply == "" {
		t.Error("Expected a non-empty reply")
	}

	// The exchange must be on the interaction log
	history, err := f.interactions.FindByPatientID(ctx, result.Patient.ID(), 10, 0)
	if err != nil {
		t.Fatalf("FindByPatientID: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 interaction, got %d", len(history))
	}
	if history[0].Channel() != entity.ChannelHTTP {
		t.Errorf("Expected default channel http, got %s", history[0].Channel())
	}
	if history[0].ReplyText() != result.Reply {
		t.Error("Interaction reply should match the returned reply")
	}

	// Observers see both events
	if n := len(f.bus.byType(eventbus.EventTypePatientCreated)); n != 1 {
		t.Errorf("Expected 1 patient.created event, got %d", n)
	}
	completed := f.bus.byType(eventbus.EventTypeTriageCompleted)
	if len(completed) != 1 {
		t.Fatalf("Expected 1 triage.completed event, got %d", len(completed))
	}
	payload, ok := completed[0].Payload().(eventbus.TriageCompletedPayload)
	if !ok {
		t.Fatalf("Unexpected payload type %T", completed[0].Payload())
	}
	if payload.Intent != string(valueobject.IntentScheduleAppointment) {
		t.Errorf("Event intent mismatch: %s", payload.Intent)
	}
}

// === Returning patient ===

func TestTriage_Execute_ReturningPatient(t *testing.T) {
	f := newTriageFixture()
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, usecase.TriageCommand{
		SenderID:   "+5511999990000",
		SenderName: "Maria",
		Message:    "oi",
	})
	if err != nil {
		t.Fatalf("first contact: %v", err)
	}
	if !first.IsNewPatient {
		t.Fatal("first contact should create the patient")
	}

	second, err := f.uc.Execute(ctx, usecase.TriageCommand{
		SenderID: "+5511999990000",
		Message:  "quero agendar uma consulta",
	})
	if err != nil {
		t.Fatalf("second contact: %v", err)
	}

	if second.IsNewPatient {
		t.Error("second contact must not report a new patient")
	}
	if second.PatientStatus != valueobject.StatusExistingPatient {
		t.Errorf("Expected existing_patient, got %s", second.PatientStatus)
	}
	if second.NextAction != valueobject.ActionScheduleAppointment {
		t.Errorf("Expected schedule_appointment next action, got %s", second.NextAction)
	}
	if !strings.Contains(second.Reply, "Maria") {
		t.Errorf("Reply should greet the patient by name, got %q", second.Reply)
	}

	// Exactly one patient row, two log entries
	if count, _ := f.patients.Count(ctx); count != 1 {
		t.Errorf("Expected 1 patient, got %d", count)
	}
	if count, _ := f.interactions.CountByPatient(ctx, second.Patient.ID()); count != 2 {
		t.Errorf("Expected 2 interactions, got %d", count)
	}
}

// === Empty message ===

func TestTriage_Execute_EmptyMessage(t *testing.T) {
	f := newTriageFixture()

	result, err := f.uc.Execute(context.Background(), usecase.TriageCommand{
		SenderID: "console:demo",
		Message:  "",
	})
	if err != nil {
		t.Fatalf("Empty message must not fail: %v", err)
	}

	if result.Intent.Label() != valueobject.IntentUnknown {
		t.Errorf("Expected unknown intent, got %s", result.Intent.Label())
	}
	if result.Intent.Confidence() != 0 {
		t.Errorf("Expected confidence 0 for empty text, got %f", result.Intent.Confidence())
	}
	if result.Reply == "" {
		t.Error("Even an empty message gets a reply")
	}
}

// === Validation ===

func TestTriage_Execute_MissingSenderID(t *testing.T) {
	f := newTriageFixture()

	_, err := f.uc.Execute(context.Background(), usecase.TriageCommand{
		SenderID: "   ",
		Message:  "oi",
	})
	if err == nil {
		t.Fatal("Expected an error for a blank sender id")
	}
	if !apperrors.IsInvalidInput(err) {
		t.Errorf("Expected INVALID_INPUT, got %v", err)
	}

	if count, _ := f.patients.Count(context.Background()); count != 0 {
		t.Error("Validation failure must not create patients")
	}
}

// === WhatsApp JID normalization ===

func TestTriage_Execute_NormalizesJID(t *testing.T) {
	f := newTriageFixture()

	result, err := f.uc.Execute(context.Background(), usecase.TriageCommand{
		SenderID: "5511988887777@s.whatsapp.net",
		Message:  "bom dia",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Patient.ID() != "5511988887777" {
		t.Errorf("Expected JID suffix stripped, got %q", result.Patient.ID())
	}

	// The same phone without the suffix is the same patient
	again, err := f.uc.Execute(context.Background(), usecase.TriageCommand{
		SenderID: "5511988887777",
		Message:  "oi de novo",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if again.IsNewPatient {
		t.Error("Normalized ids must map to the same patient")
	}
}

// === Late introduction ===

func TestTriage_Execute_BackfillsName(t *testing.T) {
	f := newTriageFixture()
	ctx := context.Background()

	if _, err := f.uc.Execute(ctx, usecase.TriageCommand{
		SenderID: "tg:42",
		Message:  "oi",
	}); err != nil {
		t.Fatalf("first contact: %v", err)
	}

	result, err := f.uc.Execute(ctx, usecase.TriageCommand{
		SenderID:   "tg:42",
		SenderName: "João",
		Message:    "quanto custa uma limpeza?",
	})
	if err != nil {
		t.Fatalf("second contact: %v", err)
	}

	if !result.Patient.HasName() || result.Patient.Name() != "João" {
		t.Errorf("Expected the late name to stick, got %q", result.Patient.Name())
	}

	stored, err := f.patients.FindByID(ctx, "tg:42")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Name() != "João" {
		t.Errorf("Backfilled name not persisted, got %q", stored.Name())
	}
}

// === Connector timestamps ===

func TestTriage_Execute_KeepsConnectorTimestamp(t *testing.T) {
	f := newTriageFixture()
	sent := time.Date(2026, 2, 3, 14, 30, 0, 0, time.UTC)

	result, err := f.uc.Execute(context.Background(), usecase.TriageCommand{
		SenderID:   "+5511999990000",
		Message:    "oi",
		Channel:    entity.ChannelTelegram,
		OccurredAt: sent,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !result.Interaction.CreatedAt().Equal(sent) {
		t.Errorf("Expected interaction stamped %v, got %v", sent, result.Interaction.CreatedAt())
	}
	if result.Interaction.Channel() != entity.ChannelTelegram {
		t.Errorf("Expected telegram channel, got %s", result.Interaction.Channel())
	}
}
