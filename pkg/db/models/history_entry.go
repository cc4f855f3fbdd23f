package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/pkg/enums"
)

// HistoryEntry is an immutable, append-only record of one committed
// transition. Rejected mutations never append; the log is the source of truth
// for statistics and completed-set derivation.
type HistoryEntry struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey"`
	PatientID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_history_patient_date,priority:1"`
	ExamDate    string               `gorm:"not null;index:idx_history_patient_date,priority:2"`
	StationCode *string              `gorm:"type:text;index"`
	Status      enums.TrackingStatus `gorm:"type:text"`
	Action      enums.TrackingAction `gorm:"type:text;not null;index"`
	ActorID     string               `gorm:"type:text;not null"`
	Note        *string              `gorm:"type:text"`
	CreatedAt   time.Time            `gorm:"index"`
}
