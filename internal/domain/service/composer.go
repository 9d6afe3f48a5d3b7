package service

import (
	"fmt"
	"strings"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
)

// ReplyTemplates is one loaded set of canned replies. Texts are keyed
// by intent label and patient status so a first contact asking to
// schedule gets a different answer than a returning patient.
// "{name}" inside any text is replaced with the patient's name.
type ReplyTemplates struct {
	NameFallback string
	Prefix       map[valueobject.PatientStatus]string
	Replies      map[valueobject.IntentLabel]map[valueobject.PatientStatus]string
}

// Validate checks full coverage: a prefix for both statuses and a
// reply for every intent label and status. Partial template files are
// rejected at load time instead of producing empty replies at runtime.
func (t ReplyTemplates) Validate() error {
	for _, status := range []valueobject.PatientStatus{valueobject.StatusNewLead, valueobject.StatusExistingPatient} {
		if strings.TrimSpace(t.Prefix[status]) == "" {
			return fmt.Errorf("missing prefix for status %q", status)
		}
		for _, label := range valueobject.AllIntentLabels() {
			if strings.TrimSpace(t.Replies[label][status]) == "" {
				return fmt.Errorf("missing reply for intent %q status %q", label, status)
			}
		}
	}
	return nil
}

// ReplyFor resolves the reply body, falling back to the unknown-intent
// entry if a combination is somehow absent.
func (t ReplyTemplates) ReplyFor(label valueobject.IntentLabel, status valueobject.PatientStatus) string {
	if text := t.Replies[label][status]; text != "" {
		return text
	}
	return t.Replies[valueobject.IntentUnknown][status]
}

// TemplateSource yields the active template set. Implementations may
// hot-reload the file behind it; each call returns a consistent set.
type TemplateSource interface {
	Templates() ReplyTemplates
}

// ComposedReply is the outcome of reply composition: the text sent
// back to the sender and the follow-up for the attendant workflow.
type ComposedReply struct {
	Text       string
	NextAction valueobject.NextAction
}

// ReplyComposer builds the Portuguese reply for a triaged message.
type ReplyComposer interface {
	Compose(patient *entity.Patient, status valueobject.PatientStatus, intent valueobject.Intent) ComposedReply
}

// TemplateReplyComposer composes replies from the template set.
type TemplateReplyComposer struct {
	source TemplateSource
}

func NewTemplateReplyComposer(source TemplateSource) *TemplateReplyComposer {
	return &TemplateReplyComposer{source: source}
}

// Compose concatenates the status prefix with the intent body and
// interpolates the patient name.
func (c *TemplateReplyComposer) Compose(
	patient *entity.Patient,
	status valueobject.PatientStatus,
	intent valueobject.Intent,
) ComposedReply {
	tpl := c.source.Templates()

	name := tpl.NameFallback
	if patient != nil && patient.HasName() {
		name = patient.Name()
	}

	text := tpl.Prefix[status] + tpl.ReplyFor(intent.Label(), status)
	text = strings.ReplaceAll(text, "{name}", name)

	return ComposedReply{
		Text:       text,
		NextAction: NextActionFor(intent.Label(), status),
	}
}

// NextActionFor maps a classified intent to the attendant follow-up.
// A new lead asking to schedule has no contact record yet, so the
// reception collects details before offering slots.
func NextActionFor(label valueobject.IntentLabel, status valueobject.PatientStatus) valueobject.NextAction {
	switch label {
	case valueobject.IntentScheduleAppointment:
		if status == valueobject.StatusNewLead {
			return valueobject.ActionCollectContactInfo
		}
		return valueobject.ActionScheduleAppointment
	case valueobject.IntentCancelAppointment:
		return valueobject.ActionConfirmCancellation
	case valueobject.IntentRequestPrice:
		return valueobject.ActionPivotToSchedule
	case valueobject.IntentGreeting:
		return valueobject.ActionAskHowCanHelp
	default:
		return valueobject.ActionClarifyIntent
	}
}
