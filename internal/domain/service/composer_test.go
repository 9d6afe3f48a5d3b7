package service

import (
	"strings"
	"testing"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
)

type staticTemplates struct {
	set ReplyTemplates
}

func (s staticTemplates) Templates() ReplyTemplates {
	return s.set
}

func testTemplates() ReplyTemplates {
	replies := make(map[valueobject.IntentLabel]map[valueobject.PatientStatus]string)
	for _, label := range valueobject.AllIntentLabels() {
		replies[label] = map[valueobject.PatientStatus]string{
			valueobject.StatusNewLead:         "novo:" + string(label),
			valueobject.StatusExistingPatient: "paciente:" + string(label),
		}
	}
	return ReplyTemplates{
		NameFallback: "cliente",
		Prefix: map[valueobject.PatientStatus]string{
			valueobject.StatusNewLead:         "Olá! Bem-vindo. ",
			valueobject.StatusExistingPatient: "Olá {name}! ",
		},
		Replies: replies,
	}
}

// === Composition ===

func TestCompose_NewLeadGetsWelcomePrefix(t *testing.T) {
	composer := NewTemplateReplyComposer(staticTemplates{testTemplates()})
	patient, _ := entity.NewPatient("5511999999999", "")

	got := composer.Compose(patient, valueobject.StatusNewLead, valueobject.NewIntent(valueobject.IntentScheduleAppointment, 0.9))

	want := "Olá! Bem-vindo. novo:schedule_appointment"
	if got.Text != want {
		t.Errorf("Compose() = %q, want %q", got.Text, want)
	}
	if got.NextAction != valueobject.ActionCollectContactInfo {
		t.Errorf("NextAction = %q, want collect_contact_info", got.NextAction)
	}
}

func TestCompose_ExistingPatientInterpolatesName(t *testing.T) {
	composer := NewTemplateReplyComposer(staticTemplates{testTemplates()})
	patient, _ := entity.NewPatient("5511999999999", "Maria")

	got := composer.Compose(patient, valueobject.StatusExistingPatient, valueobject.NewIntent(valueobject.IntentGreeting, 0.9))

	if !strings.HasPrefix(got.Text, "Olá Maria! ") {
		t.Errorf("Compose() = %q, want name interpolated", got.Text)
	}
	if got.NextAction != valueobject.ActionAskHowCanHelp {
		t.Errorf("NextAction = %q, want ask_how_can_help", got.NextAction)
	}
}

func TestCompose_UnnamedPatientUsesFallback(t *testing.T) {
	composer := NewTemplateReplyComposer(staticTemplates{testTemplates()})
	patient, _ := entity.NewPatient("5511999999999", "")

	got := composer.Compose(patient, valueobject.StatusExistingPatient, valueobject.NewIntent(valueobject.IntentRequestPrice, 0.9))

	if !strings.HasPrefix(got.Text, "Olá cliente! ") {
		t.Errorf("Compose() = %q, want fallback name", got.Text)
	}
}

func TestCompose_MissingEntryFallsBackToUnknown(t *testing.T) {
	set := testTemplates()
	delete(set.Replies, valueobject.IntentRequestPrice)
	composer := NewTemplateReplyComposer(staticTemplates{set})
	patient, _ := entity.NewPatient("5511999999999", "")

	got := composer.Compose(patient, valueobject.StatusNewLead, valueobject.NewIntent(valueobject.IntentRequestPrice, 0.9))

	if !strings.HasSuffix(got.Text, "novo:unknown") {
		t.Errorf("Compose() = %q, want unknown body as fallback", got.Text)
	}
}

// === Next action mapping ===

func TestNextActionFor(t *testing.T) {
	tests := []struct {
		label  valueobject.IntentLabel
		status valueobject.PatientStatus
		want   valueobject.NextAction
	}{
		{valueobject.IntentScheduleAppointment, valueobject.StatusNewLead, valueobject.ActionCollectContactInfo},
		{valueobject.IntentScheduleAppointment, valueobject.StatusExistingPatient, valueobject.ActionScheduleAppointment},
		{valueobject.IntentCancelAppointment, valueobject.StatusNewLead, valueobject.ActionConfirmCancellation},
		{valueobject.IntentRequestPrice, valueobject.StatusExistingPatient, valueobject.ActionPivotToSchedule},
		{valueobject.IntentGreeting, valueobject.StatusNewLead, valueobject.ActionAskHowCanHelp},
		{valueobject.IntentUnknown, valueobject.StatusExistingPatient, valueobject.ActionClarifyIntent},
	}
	for _, tt := range tests {
		if got := NextActionFor(tt.label, tt.status); got != tt.want {
			t.Errorf("NextActionFor(%s, %s) = %s, want %s", tt.label, tt.status, got, tt.want)
		}
	}
}

// === Template validation ===

func TestReplyTemplates_ValidateCompleteSet(t *testing.T) {
	if err := testTemplates().Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for complete set", err)
	}
}

func TestReplyTemplates_ValidateMissingReply(t *testing.T) {
	set := testTemplates()
	delete(set.Replies[valueobject.IntentGreeting], valueobject.StatusNewLead)
	if err := set.Validate(); err == nil {
		t.Error("Validate() = nil, want error for missing greeting reply")
	}
}

func TestReplyTemplates_ValidateMissingPrefix(t *testing.T) {
	set := testTemplates()
	set.Prefix[valueobject.StatusExistingPatient] = "  "
	if err := set.Validate(); err == nil {
		t.Error("Validate() = nil, want error for blank prefix")
	}
}
