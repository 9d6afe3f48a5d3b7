package valueobject

// PatientStatus tells the reply composer and the attendants whether
// the sender is a first contact or a returning patient.
type PatientStatus string

const (
	StatusNewLead         PatientStatus = "new_lead"
	StatusExistingPatient PatientStatus = "existing_patient"
)

// StatusFor maps the repository's created flag to a patient status.
func StatusFor(isNewPatient bool) PatientStatus {
	if isNewPatient {
		return StatusNewLead
	}
	return StatusExistingPatient
}

// NextAction is the follow-up the attendant workflow should take
// after a triaged message.
type NextAction string

const (
	ActionScheduleAppointment NextAction = "schedule_appointment"
	ActionCollectContactInfo  NextAction = "collect_contact_info"
	ActionPivotToSchedule     NextAction = "pivot_to_schedule"
	ActionAskHowCanHelp       NextAction = "ask_how_can_help"
	ActionConfirmCancellation NextAction = "confirm_cancellation"
	ActionClarifyIntent       NextAction = "clarify_intent"
)
