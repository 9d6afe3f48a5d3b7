package entity

import (
	"time"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
)

// Channel identifies where a message entered the gateway.
type Channel string

const (
	ChannelHTTP     Channel = "http"
	ChannelTelegram Channel = "telegram"
	ChannelConsole  Channel = "console"
	ChannelCLI      Channel = "cli"
)

// Interaction is one triaged message and the reply that went back.
// The interaction log is append-only: rows are never updated or deleted.
type Interaction struct {
	id          string
	patientID   string
	channel     Channel
	messageText string
	intent      valueobject.Intent
	replyText   string
	createdAt   time.Time
}

// NewInteraction records a triaged exchange for a patient.
func NewInteraction(
	id string,
	patientID string,
	channel Channel,
	messageText string,
	intent valueobject.Intent,
	replyText string,
) (*Interaction, error) {
	if id == "" {
		return nil, ErrInvalidInteractionID
	}
	if patientID == "" {
		return nil, ErrMissingPatientID
	}
	if channel == "" {
		return nil, ErrInvalidChannel
	}

	return &Interaction{
		id:          id,
		patientID:   patientID,
		channel:     channel,
		messageText: messageText,
		intent:      intent,
		replyText:   replyText,
		createdAt:   time.Now().UTC(),
	}, nil
}

// ReconstructInteraction rebuilds an interaction from the persistence layer.
func ReconstructInteraction(
	id string,
	patientID string,
	channel Channel,
	messageText string,
	intent valueobject.Intent,
	replyText string,
	createdAt time.Time,
) *Interaction {
	return &Interaction{
		id:          id,
		patientID:   patientID,
		channel:     channel,
		messageText: messageText,
		intent:      intent,
		replyText:   replyText,
		createdAt:   createdAt,
	}
}

func (i *Interaction) ID() string {
	return i.id
}

func (i *Interaction) PatientID() string {
	return i.patientID
}

func (i *Interaction) Channel() Channel {
	return i.channel
}

func (i *Interaction) MessageText() string {
	return i.messageText
}

func (i *Interaction) Intent() valueobject.Intent {
	return i.intent
}

func (i *Interaction) ReplyText() string {
	return i.replyText
}

func (i *Interaction) CreatedAt() time.Time {
	return i.createdAt
}

// SetCreatedAt overrides the record instant with the channel-reported
// timestamp when the connector supplies one.
func (i *Interaction) SetCreatedAt(at time.Time) {
	if !at.IsZero() {
		i.createdAt = at.UTC()
	}
}
