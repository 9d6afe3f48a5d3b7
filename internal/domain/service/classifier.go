package service

import (
	"strings"
	"unicode"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
)

// IntentClassifier assigns one label from the closed intent set to a
// message. Implementations must be deterministic: the same text always
// yields the same result.
type IntentClassifier interface {
	Classify(message string) valueobject.Intent
}

const (
	// keywordConfidence is reported when a keyword rule matches.
	keywordConfidence = 0.9
	// fallbackConfidence is reported for non-empty text with no match.
	fallbackConfidence = 0.3
)

// keywordRule binds an intent label to its trigger vocabulary.
// Single words match whole tokens so "oi" never fires inside "foi";
// phrases match as substrings of the lowercased message.
type keywordRule struct {
	label   valueobject.IntentLabel
	words   []string
	phrases []string
}

// KeywordClassifier is the rule-based classifier used in production.
// Rules are evaluated in a fixed order and the first hit wins, with
// cancellation checked before scheduling so "quero cancelar a consulta"
// is not captured by the scheduling keyword "consulta".
type KeywordClassifier struct {
	rules []keywordRule
}

// NewKeywordClassifier builds the classifier with the clinic vocabulary:
// Brazilian Portuguese keywords plus a few English fallbacks.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		rules: []keywordRule{
			{
				label: valueobject.IntentCancelAppointment,
				words: []string{"cancelar", "desmarcar", "cancelamento", "cancelo", "cancel"},
			},
			{
				label: valueobject.IntentScheduleAppointment,
				words: []string{
					"marcar", "agendar", "agendamento", "remarcar",
					"consulta", "horário", "horario",
					"appointment", "schedule",
				},
			},
			{
				label: valueobject.IntentRequestPrice,
				words: []string{
					"preço", "preco", "valor", "quanto", "custa", "custo",
					"orçamento", "orcamento", "price",
				},
			},
			{
				label:   valueobject.IntentGreeting,
				words:   []string{"oi", "olá", "ola", "hello", "hi"},
				phrases: []string{"bom dia", "boa tarde", "boa noite", "e aí", "e ai", "tudo bem"},
			},
		},
	}
}

// Classify maps the message to an intent. Empty or whitespace-only
// input yields unknown with zero confidence, never an error.
func (c *KeywordClassifier) Classify(message string) valueobject.Intent {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return valueobject.UnknownIntent()
	}

	tokens := tokenize(text)
	for _, rule := range c.rules {
		if rule.matches(text, tokens) {
			return valueobject.NewIntent(rule.label, keywordConfidence)
		}
	}

	return valueobject.NewIntent(valueobject.IntentUnknown, fallbackConfidence)
}

func (r keywordRule) matches(text string, tokens map[string]struct{}) bool {
	for _, w := range r.words {
		if _, ok := tokens[w]; ok {
			return true
		}
	}
	for _, p := range r.phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// tokenize splits the lowercased text into a word set, treating any
// non-letter, non-digit rune as a separator.
func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
