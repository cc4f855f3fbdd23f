package escort

import "github.com/google/uuid"

// AssignInput pairs a staff member with a patient for the exam day.
type AssignInput struct {
	PatientID  uuid.UUID
	ExamDate   string
	StaffID    string
	AssignedBy string
}

// AssignedEvent is emitted after a committed escort change.
type AssignedEvent struct {
	PatientID uuid.UUID `json:"patient_id"`
	ExamDate  string    `json:"exam_date"`
	StaffID   string    `json:"staff_id"`
	Replaced  *string   `json:"replaced_staff_id,omitempty"`
}
