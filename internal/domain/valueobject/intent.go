package valueobject

// IntentLabel identifies what the sender wants. The set is closed:
// the classifier never emits anything outside it, and the reply
// templates are validated against it.
type IntentLabel string

const (
	IntentScheduleAppointment IntentLabel = "schedule_appointment"
	IntentCancelAppointment   IntentLabel = "cancel_appointment"
	IntentRequestPrice        IntentLabel = "request_price"
	IntentGreeting            IntentLabel = "greeting"
	IntentUnknown             IntentLabel = "unknown"
)

// AllIntentLabels lists every label the classifier can produce.
// Template validation iterates this to guarantee full coverage.
func AllIntentLabels() []IntentLabel {
	return []IntentLabel{
		IntentScheduleAppointment,
		IntentCancelAppointment,
		IntentRequestPrice,
		IntentGreeting,
		IntentUnknown,
	}
}

// IsValidIntentLabel reports whether s is a member of the closed set.
func IsValidIntentLabel(s string) bool {
	switch IntentLabel(s) {
	case IntentScheduleAppointment, IntentCancelAppointment,
		IntentRequestPrice, IntentGreeting, IntentUnknown:
		return true
	}
	return false
}

// Intent is a classification result (immutable).
type Intent struct {
	label      IntentLabel
	confidence float64
}

// NewIntent creates a classification result. Labels outside the
// closed set collapse to unknown so downstream consumers never see
// an unexpected value.
func NewIntent(label IntentLabel, confidence float64) Intent {
	if !IsValidIntentLabel(string(label)) {
		label = IntentUnknown
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Intent{label: label, confidence: confidence}
}

// UnknownIntent is the zero-signal result used for empty input.
func UnknownIntent() Intent {
	return Intent{label: IntentUnknown, confidence: 0}
}

func (i Intent) Label() IntentLabel {
	return i.label
}

func (i Intent) Confidence() float64 {
	return i.confidence
}

// IsUnknown reports whether classification found no signal.
func (i Intent) IsUnknown() bool {
	return i.label == IntentUnknown
}

// Equals compares label and confidence.
func (i Intent) Equals(other Intent) bool {
	return i.label == other.label && i.confidence == other.confidence
}
