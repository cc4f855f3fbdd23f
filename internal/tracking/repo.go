package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	"github.com/oakhill-health/checkup-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tracking repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// supportsRowLocks reports whether the dialect understands SELECT ... FOR
// UPDATE. sqlite serializes writers at the file level, so skipping the clause
// there keeps the same guarantee.
func (r *repository) supportsRowLocks() bool {
	return r.db.Dialector.Name() != "sqlite"
}

func (r *repository) FindState(ctx context.Context, patientID uuid.UUID, examDate string) (*models.TrackingState, error) {
	var state models.TrackingState
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND exam_date = ?", patientID, examDate).
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *repository) FindStateForUpdate(ctx context.Context, patientID uuid.UUID, examDate string) (*models.TrackingState, error) {
	q := r.db.WithContext(ctx)
	if r.supportsRowLocks() {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var state models.TrackingState
	err := q.
		Where("patient_id = ? AND exam_date = ?", patientID, examDate).
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// LockStation takes the station's catalog row as the admission latch so
// concurrent capacity counts for the same station serialize.
func (r *repository) LockStation(ctx context.Context, code string) error {
	if !r.supportsRowLocks() {
		return nil
	}
	var station models.Station
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("code = ?", code).
		First(&station).Error
}

func (r *repository) CreateState(ctx context.Context, state *models.TrackingState) error {
	return r.db.WithContext(ctx).Create(state).Error
}

// CommitState persists the mutated state only when the stored version still
// matches the one the caller loaded. Zero rows affected means a concurrent
// writer won.
func (r *repository) CommitState(ctx context.Context, state *models.TrackingState, expectedVersion int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TrackingState{}).
		Where("id = ? AND version = ?", state.ID, expectedVersion).
		Updates(map[string]any{
			"station_code":      state.StationCode,
			"status":            state.Status,
			"next_station_code": state.NextStationCode,
			"version":           expectedVersion + 1,
			"updated_by":        state.UpdatedBy,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		state.Version = expectedVersion + 1
	}
	return result.RowsAffected, nil
}

func (r *repository) ListStates(ctx context.Context, examDate string) ([]models.TrackingState, error) {
	var states []models.TrackingState
	err := r.db.WithContext(ctx).
		Where("exam_date = ?", examDate).
		Order("updated_at ASC").
		Find(&states).Error
	if err != nil {
		return nil, err
	}
	return states, nil
}

func (r *repository) CountByStatus(ctx context.Context, examDate, stationCode string, status enums.TrackingStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TrackingState{}).
		Where("exam_date = ? AND station_code = ? AND status = ?", examDate, stationCode, status).
		Count(&count).Error
	return count, err
}

// CountIncoming counts patients dispatched toward the station: moving, or
// still in an exam elsewhere with the station as their next stop.
func (r *repository) CountIncoming(ctx context.Context, examDate, stationCode string, excludePatient uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.TrackingState{}).
		Where("exam_date = ? AND next_station_code = ? AND status IN ?", examDate, stationCode,
			[]enums.TrackingStatus{enums.TrackingStatusInExam, enums.TrackingStatusMoving})
	if excludePatient != uuid.Nil {
		q = q.Where("patient_id <> ?", excludePatient)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListHistory(ctx context.Context, patientID uuid.UUID, examDate string, cursor *pagination.Cursor, limit int) ([]models.HistoryEntry, error) {
	query := r.db.WithContext(ctx).
		Where("patient_id = ? AND exam_date = ?", patientID, examDate).
		Order("created_at ASC, id ASC")

	// Keyset pagination on (created_at, id) ascending, oldest first.
	if cursor != nil {
		query = query.Where(
			"created_at > ? OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.HistoryEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CompletedStations derives the day's finished set from the history log.
func (r *repository) CompletedStations(ctx context.Context, patientID uuid.UUID, examDate string) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.HistoryEntry{}).
		Distinct("station_code").
		Where("patient_id = ? AND exam_date = ? AND action = ? AND station_code IS NOT NULL",
			patientID, examDate, enums.TrackingActionComplete).
		Pluck("station_code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}
