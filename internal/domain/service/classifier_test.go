package service

import (
	"testing"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
)

// === Keyword matching ===

func TestClassify_SchedulingKeywords(t *testing.T) {
	c := NewKeywordClassifier()
	messages := []string{
		"quero agendar uma consulta",
		"Gostaria de MARCAR um horário",
		"tem horario livre amanhã?",
		"preciso de agendamento urgente",
		"can I schedule an appointment?",
	}
	for _, msg := range messages {
		got := c.Classify(msg)
		if got.Label() != valueobject.IntentScheduleAppointment {
			t.Errorf("Classify(%q) = %q, want schedule_appointment", msg, got.Label())
		}
		if got.Confidence() != 0.9 {
			t.Errorf("Classify(%q) confidence = %v, want 0.9", msg, got.Confidence())
		}
	}
}

func TestClassify_PriceKeywords(t *testing.T) {
	c := NewKeywordClassifier()
	messages := []string{
		"quanto custa a limpeza?",
		"qual o valor do clareamento",
		"me passa o preço",
		"queria um orçamento",
	}
	for _, msg := range messages {
		if got := c.Classify(msg); got.Label() != valueobject.IntentRequestPrice {
			t.Errorf("Classify(%q) = %q, want request_price", msg, got.Label())
		}
	}
}

func TestClassify_Greetings(t *testing.T) {
	c := NewKeywordClassifier()
	messages := []string{
		"oi",
		"Olá!",
		"bom dia",
		"boa tarde, tudo certo?",
		"e aí, tudo bem?",
	}
	for _, msg := range messages {
		if got := c.Classify(msg); got.Label() != valueobject.IntentGreeting {
			t.Errorf("Classify(%q) = %q, want greeting", msg, got.Label())
		}
	}
}

func TestClassify_CancellationKeywords(t *testing.T) {
	c := NewKeywordClassifier()
	messages := []string{
		"preciso cancelar minha consulta",
		"quero desmarcar o horário de sexta",
		"cancelamento da consulta, por favor",
	}
	for _, msg := range messages {
		if got := c.Classify(msg); got.Label() != valueobject.IntentCancelAppointment {
			t.Errorf("Classify(%q) = %q, want cancel_appointment", msg, got.Label())
		}
	}
}

// === Rule ordering ===

func TestClassify_CancellationBeatsScheduling(t *testing.T) {
	// "consulta" is a scheduling keyword; cancellation must win anyway.
	c := NewKeywordClassifier()
	got := c.Classify("quero cancelar a consulta de amanhã")
	if got.Label() != valueobject.IntentCancelAppointment {
		t.Errorf("Classify() = %q, want cancel_appointment", got.Label())
	}
}

func TestClassify_SchedulingBeatsPrice(t *testing.T) {
	// "quanto" is a price keyword but the scheduling ask dominates.
	c := NewKeywordClassifier()
	got := c.Classify("quanto antes quero marcar consulta")
	if got.Label() != valueobject.IntentScheduleAppointment {
		t.Errorf("Classify() = %q, want schedule_appointment", got.Label())
	}
}

// === Fallbacks and edge cases ===

func TestClassify_EmptyMessage(t *testing.T) {
	c := NewKeywordClassifier()
	for _, msg := range []string{"", "   ", "\n\t"} {
		got := c.Classify(msg)
		if got.Label() != valueobject.IntentUnknown {
			t.Errorf("Classify(%q) = %q, want unknown", msg, got.Label())
		}
		if got.Confidence() != 0 {
			t.Errorf("Classify(%q) confidence = %v, want 0", msg, got.Confidence())
		}
	}
}

func TestClassify_UnmatchedTextFallsBack(t *testing.T) {
	c := NewKeywordClassifier()
	got := c.Classify("meu dente quebrou ontem")
	if got.Label() != valueobject.IntentUnknown {
		t.Errorf("Classify() = %q, want unknown", got.Label())
	}
	if got.Confidence() != 0.3 {
		t.Errorf("confidence = %v, want 0.3", got.Confidence())
	}
}

func TestClassify_KeywordsMatchWholeWordsOnly(t *testing.T) {
	// "foi" contains "oi" and must not read as a greeting.
	c := NewKeywordClassifier()
	got := c.Classify("foi tudo certo na clínica")
	if got.Label() == valueobject.IntentGreeting {
		t.Errorf("Classify() = greeting, keyword matched inside another word")
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewKeywordClassifier()
	first := c.Classify("quero agendar uma consulta")
	second := c.Classify("quero agendar uma consulta")
	if !first.Equals(second) {
		t.Errorf("same input classified differently: %v vs %v", first, second)
	}
}
