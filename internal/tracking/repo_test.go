package tracking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	"github.com/oakhill-health/checkup-backend/pkg/pagination"
)

func setupTrackingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:tracking_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Patient{},
		&models.Station{},
		&models.EquipmentUnit{},
		&models.EquipmentLog{},
		&models.TrackingState{},
		&models.HistoryEntry{},
	))
	return db
}

func TestCommitStateVersionGuard(t *testing.T) {
	db := setupTrackingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	station := "REG"
	state := &models.TrackingState{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		ExamDate:    "2026-08-24",
		StationCode: &station,
		Status:      enums.TrackingStatusWaiting,
		UpdatedBy:   "desk-1",
	}
	require.NoError(t, repo.CreateState(ctx, state))

	state.Status = enums.TrackingStatusInExam
	rows, err := repo.CommitState(ctx, state, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)
	require.EqualValues(t, 1, state.Version)

	// A second writer holding the stale version loses.
	stale := *state
	stale.Status = enums.TrackingStatusMoving
	rows, err = repo.CommitState(ctx, &stale, 0)
	require.NoError(t, err)
	require.Zero(t, rows)

	reloaded, err := repo.FindState(ctx, state.PatientID, state.ExamDate)
	require.NoError(t, err)
	require.Equal(t, enums.TrackingStatusInExam, reloaded.Status)
	require.EqualValues(t, 1, reloaded.Version)
}

func TestCompletedStationsDistinct(t *testing.T) {
	db := setupTrackingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	patientID := uuid.New()
	examDate := "2026-08-24"

	appendComplete := func(station string) {
		code := station
		require.NoError(t, repo.AppendHistory(ctx, &models.HistoryEntry{
			ID:          uuid.New(),
			PatientID:   patientID,
			ExamDate:    examDate,
			StationCode: &code,
			Status:      enums.TrackingStatusMoving,
			Action:      enums.TrackingActionComplete,
			ActorID:     "staff-1",
			CreatedAt:   time.Now().UTC(),
		}))
	}

	appendComplete("REG")
	appendComplete("BLOOD")
	appendComplete("BLOOD")

	code := "XRAY"
	require.NoError(t, repo.AppendHistory(ctx, &models.HistoryEntry{
		ID:          uuid.New(),
		PatientID:   patientID,
		ExamDate:    examDate,
		StationCode: &code,
		Status:      enums.TrackingStatusWaiting,
		Action:      enums.TrackingActionArrive,
		ActorID:     "staff-1",
		CreatedAt:   time.Now().UTC(),
	}))

	done, err := repo.CompletedStations(ctx, patientID, examDate)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"REG", "BLOOD"}, done)
}

func TestCountIncomingExcludesPatient(t *testing.T) {
	db := setupTrackingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	examDate := "2026-08-24"
	target := "CT"
	me := uuid.New()

	seed := func(patientID uuid.UUID, status enums.TrackingStatus, next *string) {
		require.NoError(t, repo.CreateState(ctx, &models.TrackingState{
			ID:              uuid.New(),
			PatientID:       patientID,
			ExamDate:        examDate,
			Status:          status,
			NextStationCode: next,
			UpdatedBy:       "desk-1",
		}))
	}

	seed(me, enums.TrackingStatusMoving, &target)
	seed(uuid.New(), enums.TrackingStatusMoving, &target)
	// Dispatched mid-exam: counts as incoming the moment the next stop is set.
	seed(uuid.New(), enums.TrackingStatusInExam, &target)
	seed(uuid.New(), enums.TrackingStatusWaiting, &target)

	count, err := repo.CountIncoming(ctx, examDate, target, me)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	count, err = repo.CountIncoming(ctx, examDate, target, uuid.Nil)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)
}

func TestListHistoryOrdered(t *testing.T) {
	db := setupTrackingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	patientID := uuid.New()
	examDate := "2026-08-24"
	base := time.Now().UTC().Add(-time.Hour)

	for i, action := range []enums.TrackingAction{
		enums.TrackingActionArrive,
		enums.TrackingActionStart,
		enums.TrackingActionComplete,
	} {
		require.NoError(t, repo.AppendHistory(ctx, &models.HistoryEntry{
			ID:        uuid.New(),
			PatientID: patientID,
			ExamDate:  examDate,
			Action:    action,
			ActorID:   "staff-1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := repo.ListHistory(ctx, patientID, examDate, nil, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, enums.TrackingActionArrive, entries[0].Action)
	require.Equal(t, enums.TrackingActionStart, entries[1].Action)
	require.Equal(t, enums.TrackingActionComplete, entries[2].Action)

	// Keyset continuation resumes strictly after the cursor row.
	rest, err := repo.ListHistory(ctx, patientID, examDate, &pagination.Cursor{
		CreatedAt: entries[0].CreatedAt,
		ID:        entries[0].ID,
	}, 0)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	require.Equal(t, enums.TrackingActionStart, rest[0].Action)
}
