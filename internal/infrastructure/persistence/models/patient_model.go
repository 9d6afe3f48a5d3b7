package models

import "time"

// PatientModel is the database row for a clinic contact.
// The primary key is the normalized sender id, so first-contact
// creation is idempotent by construction.
type PatientModel struct {
	ID            string `gorm:"primaryKey;size:64"`
	Name          string `gorm:"size:128"`
	CreatedAt     time.Time
	LastMessageAt time.Time `gorm:"index"`
}

// TableName pins the table name.
func (PatientModel) TableName() string {
	return "patients"
}
