package models

import "time"

// InteractionModel is one row of the append-only triage log.
// There is no UpdatedAt or DeletedAt: rows are written once.
type InteractionModel struct {
	ID          string    `gorm:"primaryKey;size:64"`
	PatientID   string    `gorm:"index;size:64;not null"`
	Channel     string    `gorm:"size:16;not null"`
	MessageText string    `gorm:"type:text;not null"`
	Intent      string    `gorm:"size:32;not null;index"`
	Confidence  float64   `gorm:"not null"`
	ReplyText   string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"index"`
}

// TableName pins the table name.
func (InteractionModel) TableName() string {
	return "interactions"
}
