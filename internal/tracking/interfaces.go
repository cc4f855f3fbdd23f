package tracking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	"github.com/oakhill-health/checkup-backend/pkg/pagination"
)

// Repository defines persistence operations for tracking state and the
// history log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindState(ctx context.Context, patientID uuid.UUID, examDate string) (*models.TrackingState, error)
	FindStateForUpdate(ctx context.Context, patientID uuid.UUID, examDate string) (*models.TrackingState, error)
	LockStation(ctx context.Context, code string) error
	CreateState(ctx context.Context, state *models.TrackingState) error
	CommitState(ctx context.Context, state *models.TrackingState, expectedVersion int64) (int64, error)
	ListStates(ctx context.Context, examDate string) ([]models.TrackingState, error)
	CountByStatus(ctx context.Context, examDate, stationCode string, status enums.TrackingStatus) (int64, error)
	CountIncoming(ctx context.Context, examDate, stationCode string, excludePatient uuid.UUID) (int64, error)
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	ListHistory(ctx context.Context, patientID uuid.UUID, examDate string, cursor *pagination.Cursor, limit int) ([]models.HistoryEntry, error)
	CompletedStations(ctx context.Context, patientID uuid.UUID, examDate string) ([]string, error)
}

// Service is the tracking state machine: the only write path for patient
// movement on an exam day.
type Service interface {
	ReportArrival(ctx context.Context, input ArrivalInput) (*TransitionResult, error)
	ReportStart(ctx context.Context, input StartInput) (*TransitionResult, error)
	ReportComplete(ctx context.Context, input CompleteInput) (*TransitionResult, error)
	AssignStation(ctx context.Context, input AssignInput) (*TransitionResult, error)
	State(ctx context.Context, patientID uuid.UUID, examDate string) (*models.TrackingState, error)
	History(ctx context.Context, patientID uuid.UUID, examDate string, params pagination.Params) (*HistoryPage, error)
}
