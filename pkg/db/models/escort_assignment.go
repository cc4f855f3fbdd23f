package models

import (
	"time"

	"github.com/google/uuid"
)

// EscortAssignment pairs a staff member with a patient for one exam day. At
// most one row per (patient, exam date) may be active; reassignment
// deactivates the previous row in the same transaction.
type EscortAssignment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PatientID  uuid.UUID `gorm:"type:uuid;not null;index:idx_escort_patient_date,priority:1"`
	ExamDate   string    `gorm:"not null;index:idx_escort_patient_date,priority:2"`
	StaffID    string    `gorm:"type:text;not null;index"`
	AssignedBy string    `gorm:"type:text;not null"`
	AssignedAt time.Time
	Active     bool      `gorm:"not null;default:true"`
}
