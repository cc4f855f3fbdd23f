package occupancy

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/internal/stations"
	"github.com/oakhill-health/checkup-backend/internal/tracking"
	"github.com/oakhill-health/checkup-backend/pkg/config"
	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
)

func setupOccupancyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:occupancy_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Station{},
		&models.TrackingState{},
	))
	return db
}

type fakeCache struct {
	store map[string]string
	gets  int
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.gets++
	if v, ok := f.store[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("miss: %s", key)
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.sets++
	switch v := value.(type) {
	case []byte:
		f.store[key] = string(v)
	case string:
		f.store[key] = v
	}
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.store, key)
	}
	return nil
}

func (f *fakeCache) SnapshotKey(examDate string) string {
	return "test:snapshot:" + examDate
}

func seedOccupancy(t *testing.T, db *gorm.DB, examDate string) {
	t.Helper()

	for _, s := range []models.Station{
		{ID: uuid.New(), Code: "BLOOD", Name: "Blood Draw", DurationMin: 10, Capacity: 2, Active: true},
		{ID: uuid.New(), Code: "XRAY", Name: "X-Ray", DurationMin: 15, Capacity: 1, Active: true},
	} {
		require.NoError(t, db.Create(&s).Error)
	}

	addState := func(station *string, next *string, status enums.TrackingStatus, offset time.Duration) {
		require.NoError(t, db.Create(&models.TrackingState{
			ID:              uuid.New(),
			PatientID:       uuid.New(),
			ExamDate:        examDate,
			StationCode:     station,
			NextStationCode: next,
			Status:          status,
			UpdatedBy:       "desk-1",
			UpdatedAt:       time.Now().UTC().Add(offset),
		}).Error)
	}

	blood := "BLOOD"
	xray := "XRAY"
	addState(&blood, nil, enums.TrackingStatusWaiting, -3*time.Minute)
	addState(&blood, nil, enums.TrackingStatusWaiting, -2*time.Minute)
	// Mid-exam at BLOOD with XRAY dispatched: in-exam at BLOOD, incoming at XRAY.
	addState(&blood, &xray, enums.TrackingStatusInExam, -1*time.Minute)
	addState(&xray, nil, enums.TrackingStatusInExam, -1*time.Minute)
	addState(nil, &xray, enums.TrackingStatusMoving, -30*time.Second)
}

func newOccupancyService(t *testing.T, db *gorm.DB, cache SnapshotCache) Service {
	t.Helper()

	svc, err := NewService(
		NewRepository(db),
		stations.NewRepository(db),
		tracking.NewRepository(db),
		cache,
		nil,
		config.EngineConfig{WarnUtilization: 0.70, SnapshotTTL: 5 * time.Second},
	)
	require.NoError(t, err)
	return svc
}

func TestSnapshotComputesLoads(t *testing.T) {
	db := setupOccupancyTestDB(t)
	examDate := "2026-08-24"
	seedOccupancy(t, db, examDate)

	svc := newOccupancyService(t, db, nil)

	snap, err := svc.Snapshot(context.Background(), examDate)
	require.NoError(t, err)
	require.Len(t, snap.Stations, 2)

	byCode := make(map[string]StationLoad, len(snap.Stations))
	for _, load := range snap.Stations {
		byCode[load.Code] = load
	}

	blood := byCode["BLOOD"]
	require.EqualValues(t, 2, blood.Waiting)
	require.EqualValues(t, 1, blood.InExam)
	require.InDelta(t, 0.5, blood.Utilization, 0.001)
	require.Equal(t, enums.OccupancyLevelOK, blood.Level)
	// 2 waiting x 10min, plus half a slot for the exam underway.
	require.Equal(t, 25, blood.EstimatedWaitMin)

	xray := byCode["XRAY"]
	require.EqualValues(t, 1, xray.InExam)
	require.EqualValues(t, 2, xray.Incoming)
	require.Equal(t, enums.OccupancyLevelFull, xray.Level)
}

func TestSnapshotUsesCacheUntilInvalidated(t *testing.T) {
	db := setupOccupancyTestDB(t)
	examDate := "2026-08-24"
	seedOccupancy(t, db, examDate)

	cache := newFakeCache()
	svc := newOccupancyService(t, db, cache)
	ctx := context.Background()

	first, err := svc.Snapshot(ctx, examDate)
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)

	second, err := svc.Snapshot(ctx, examDate)
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)
	require.Equal(t, first.GeneratedAt.Unix(), second.GeneratedAt.Unix())

	require.NoError(t, svc.Invalidate(ctx, examDate))

	_, err = svc.Snapshot(ctx, examDate)
	require.NoError(t, err)
	require.Equal(t, 2, cache.sets)
}

func TestQueuePosition(t *testing.T) {
	db := setupOccupancyTestDB(t)
	examDate := "2026-08-24"

	require.NoError(t, db.Create(&models.Station{
		ID: uuid.New(), Code: "US", Name: "Ultrasound", DurationMin: 20, Capacity: 1, Active: true,
	}).Error)

	code := "US"
	earlier := uuid.New()
	later := uuid.New()
	require.NoError(t, db.Create(&models.TrackingState{
		ID: uuid.New(), PatientID: earlier, ExamDate: examDate, StationCode: &code,
		Status: enums.TrackingStatusWaiting, UpdatedBy: "desk-1",
		UpdatedAt: time.Now().UTC().Add(-5 * time.Minute),
	}).Error)
	require.NoError(t, db.Create(&models.TrackingState{
		ID: uuid.New(), PatientID: later, ExamDate: examDate, StationCode: &code,
		Status: enums.TrackingStatusWaiting, UpdatedBy: "desk-1",
		UpdatedAt: time.Now().UTC(),
	}).Error)

	svc := newOccupancyService(t, db, nil)
	ctx := context.Background()

	pos, err := svc.QueuePosition(ctx, earlier, examDate)
	require.NoError(t, err)
	require.EqualValues(t, 1, pos.Position)
	require.Equal(t, 0, pos.EstimatedWaitMin)

	pos, err = svc.QueuePosition(ctx, later, examDate)
	require.NoError(t, err)
	require.EqualValues(t, 2, pos.Position)
	require.Equal(t, 20, pos.EstimatedWaitMin)

	_, err = svc.QueuePosition(ctx, uuid.New(), examDate)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
