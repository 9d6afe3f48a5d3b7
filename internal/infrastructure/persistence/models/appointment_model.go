package models

import "time"

// AppointmentModel is the database row for a booked consultation slot.
type AppointmentModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	PatientID string    `gorm:"index;size:64;not null"`
	StartsAt  time.Time `gorm:"index;not null"`
	EndsAt    time.Time `gorm:"not null"`
	Status    string    `gorm:"size:16;not null;index"` // scheduled, cancelled
	Notes     string    `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName pins the table name.
func (AppointmentModel) TableName() string {
	return "appointments"
}
