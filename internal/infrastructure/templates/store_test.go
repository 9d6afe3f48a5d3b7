package templates

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
)

const validTemplates = `
name_fallback: cliente
prefix:
  new_lead: "Olá! "
  existing_patient: "Olá {name}! "
replies:
  schedule_appointment:
    new_lead: "Vamos marcar sua primeira consulta."
    existing_patient: "Vamos agendar."
  cancel_appointment:
    new_lead: "Qual telefone foi usado no agendamento?"
    existing_patient: "Vou confirmar o cancelamento."
  request_price:
    new_lead: "Os valores variam."
    existing_patient: "Peço um orçamento à recepção."
  greeting:
    new_lead: "Como posso ajudar?"
    existing_patient: "Como posso ajudar hoje?"
  unknown:
    new_lead: "Não entendi."
    existing_patient: "Pode repetir?"
`

func writeTemplates(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write template file: %v", err)
	}
	return path
}

func TestNewStore_LoadsValidFile(t *testing.T) {
	path := writeTemplates(t, validTemplates)

	store, err := NewStore(path, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	set := store.Templates()
	if set.NameFallback != "cliente" {
		t.Errorf("NameFallback = %q, want cliente", set.NameFallback)
	}
	got := set.ReplyFor(valueobject.IntentScheduleAppointment, valueobject.StatusNewLead)
	if got != "Vamos marcar sua primeira consulta." {
		t.Errorf("ReplyFor(schedule, new) = %q", got)
	}
}

func TestNewStore_RejectsIncompleteFile(t *testing.T) {
	path := writeTemplates(t, `
name_fallback: cliente
prefix:
  new_lead: "Olá! "
replies: {}
`)

	if _, err := NewStore(path, false, zap.NewNop()); err == nil {
		t.Fatal("NewStore should reject a template file with missing entries")
	}
}

func TestNewStore_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := NewStore(path, false, zap.NewNop()); err == nil {
		t.Fatal("NewStore should fail when the file does not exist")
	}
}

func TestReload_KeepsPreviousSetOnBadEdit(t *testing.T) {
	path := writeTemplates(t, validTemplates)

	store, err := NewStore(path, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	if err := os.WriteFile(path, []byte("replies: ["), 0644); err != nil {
		t.Fatalf("failed to corrupt file: %v", err)
	}
	if err := store.Reload(); err == nil {
		t.Fatal("Reload should fail on unparseable content")
	}

	set := store.Templates()
	if set.NameFallback != "cliente" {
		t.Error("previous template set was lost after a failed reload")
	}
}

func TestReload_PicksUpEdits(t *testing.T) {
	path := writeTemplates(t, validTemplates)

	store, err := NewStore(path, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	edited := `
name_fallback: paciente
prefix:
  new_lead: "Oi! "
  existing_patient: "Oi {name}! "
replies:
  schedule_appointment:
    new_lead: "a"
    existing_patient: "b"
  cancel_appointment:
    new_lead: "c"
    existing_patient: "d"
  request_price:
    new_lead: "e"
    existing_patient: "f"
  greeting:
    new_lead: "g"
    existing_patient: "h"
  unknown:
    new_lead: "i"
    existing_patient: "j"
`
	if err := os.WriteFile(path, []byte(edited), 0644); err != nil {
		t.Fatalf("failed to edit file: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if got := store.Templates().NameFallback; got != "paciente" {
		t.Errorf("NameFallback = %q after reload, want paciente", got)
	}
}
