package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/pkg/enums"
)

// TrackingState is the single live record per (patient, exam date). It is the
// current-view projection over the history log and is only mutated through the
// state machine, under the row lock and with an optimistic version bump.
type TrackingState struct {
	ID              uuid.UUID            `gorm:"type:uuid;primaryKey"`
	PatientID       uuid.UUID            `gorm:"type:uuid;not null;index;uniqueIndex:uq_tracking_patient_date,priority:1"`
	ExamDate        string               `gorm:"not null;index;uniqueIndex:uq_tracking_patient_date,priority:2"`
	StationCode     *string              `gorm:"type:text;index"`
	Status          enums.TrackingStatus `gorm:"type:text;not null;default:'waiting'"`
	NextStationCode *string              `gorm:"type:text;index"`
	Version         int64                `gorm:"not null;default:0"`
	UpdatedBy       string               `gorm:"type:text;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
