package entity

import (
	"strings"
	"time"
)

// Patient is a clinic contact keyed by its normalized sender id
// (typically the phone number extracted from the WhatsApp JID).
// A patient row is created on first contact and never duplicated.
type Patient struct {
	id            string
	name          string
	createdAt     time.Time
	lastMessageAt time.Time
}

// NewPatient creates a patient record for a first contact.
// The name is optional; channels that know the sender's display
// name pass it through so attendants see something better than a number.
func NewPatient(id string, name string) (*Patient, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidPatientID
	}

	now := time.Now().UTC()
	return &Patient{
		id:            id,
		name:          strings.TrimSpace(name),
		createdAt:     now,
		lastMessageAt: now,
	}, nil
}

// ReconstructPatient rebuilds a patient from the persistence layer.
func ReconstructPatient(id string, name string, createdAt, lastMessageAt time.Time) *Patient {
	return &Patient{
		id:            id,
		name:          name,
		createdAt:     createdAt,
		lastMessageAt: lastMessageAt,
	}
}

func (p *Patient) ID() string {
	return p.id
}

func (p *Patient) Name() string {
	return p.name
}

func (p *Patient) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Patient) LastMessageAt() time.Time {
	return p.lastMessageAt
}

// HasName reports whether the clinic knows this patient by name.
func (p *Patient) HasName() bool {
	return p.name != ""
}

// SetName fills the name in when a later message reveals it.
// Blank input is ignored so an anonymous follow-up never erases a known name.
func (p *Patient) SetName(name string) {
	name = strings.TrimSpace(name)
	if name != "" {
		p.name = name
	}
}

// Touch records message activity at the given instant.
func (p *Patient) Touch(at time.Time) {
	if at.After(p.lastMessageAt) {
		p.lastMessageAt = at
	}
}
