package valueobject

import (
	"errors"
	"strings"
)

// ErrEmptySenderID is returned when a sender id normalizes to nothing.
var ErrEmptySenderID = errors.New("empty sender id")

// Sender is the normalized identity of a message author (immutable).
// WhatsApp connectors send JIDs like "5511999999999@s.whatsapp.net";
// everything after the first '@' is transport routing, not identity,
// so normalization strips it. Other channels prefix their ids
// ("tg:", "console:") and pass through unchanged.
type Sender struct {
	id   string
	name string
}

// NewSender normalizes a raw sender id. The display name is optional.
func NewSender(rawID string, name string) (Sender, error) {
	id := strings.TrimSpace(rawID)
	if at := strings.Index(id, "@"); at >= 0 {
		id = id[:at]
	}
	if id == "" {
		return Sender{}, ErrEmptySenderID
	}

	return Sender{
		id:   id,
		name: strings.TrimSpace(name),
	}, nil
}

func (s Sender) ID() string {
	return s.id
}

func (s Sender) Name() string {
	return s.name
}

// HasName reports whether the channel supplied a display name.
func (s Sender) HasName() bool {
	return s.name != ""
}

// Equals compares identity only; the display name may drift between
// messages without changing who the sender is.
func (s Sender) Equals(other Sender) bool {
	return s.id == other.id
}
