package tracking

import (
	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/internal/conflict"
	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
)

// ArrivalInput reports a patient arriving at a station. The first arrival of
// the day creates the tracking row.
type ArrivalInput struct {
	PatientID   uuid.UUID
	ExamDate    string
	StationCode string
	ActorID     string
	Note        *string
}

// StartInput reports an exam starting at the patient's current station.
type StartInput struct {
	PatientID uuid.UUID
	ExamDate  string
	ActorID   string
}

// CompleteInput reports the current exam finishing.
type CompleteInput struct {
	PatientID uuid.UUID
	ExamDate  string
	ActorID   string
	Note      *string
}

// AssignInput proposes the patient's next station.
type AssignInput struct {
	PatientID   uuid.UUID
	ExamDate    string
	StationCode string
	ActorID     string
}

// TransitionResult is the committed outcome of a state machine operation.
// Warnings carry advisory conflict findings that did not block.
type TransitionResult struct {
	State            *models.TrackingState `json:"state"`
	CheckupCompleted bool                  `json:"checkup_completed"`
	Warnings         []conflict.Finding    `json:"warnings,omitempty"`
}

// HistoryPage is one cursor page of a patient's day timeline, oldest first.
type HistoryPage struct {
	Entries    []models.HistoryEntry `json:"entries"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// TransitionEvent is the payload emitted after each committed transition.
type TransitionEvent struct {
	PatientID   uuid.UUID            `json:"patient_id"`
	ExamDate    string               `json:"exam_date"`
	Action      enums.TrackingAction `json:"action"`
	Status      enums.TrackingStatus `json:"status"`
	StationCode *string              `json:"station_code,omitempty"`
	NextStation *string              `json:"next_station,omitempty"`
}
