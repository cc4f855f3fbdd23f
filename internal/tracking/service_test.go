package tracking

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/internal/conflict"
	"github.com/oakhill-health/checkup-backend/internal/equipment"
	"github.com/oakhill-health/checkup-backend/internal/patients"
	"github.com/oakhill-health/checkup-backend/internal/stations"
	"github.com/oakhill-health/checkup-backend/pkg/config"
	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	dbtypes "github.com/oakhill-health/checkup-backend/pkg/db/types"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/events"
	"github.com/oakhill-health/checkup-backend/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type trackingFixture struct {
	db       *gorm.DB
	svc      Service
	events   *events.Dispatcher
	emitted  []events.Envelope
	emitLock sync.Mutex
}

func newTrackingFixture(t *testing.T) *trackingFixture {
	t.Helper()

	db := setupTrackingTestDB(t)
	fx := &trackingFixture{db: db, events: events.NewDispatcher(nil)}
	fx.events.Subscribe(func(_ context.Context, env events.Envelope) {
		fx.emitLock.Lock()
		defer fx.emitLock.Unlock()
		fx.emitted = append(fx.emitted, env)
	})

	detector := conflict.NewDetector(config.EngineConfig{NearCapacityFract: 0.80})

	svc, err := NewService(
		NewRepository(db),
		patients.NewRepository(db),
		stations.NewRepository(db),
		equipment.NewRepository(db),
		gormTxRunner{db: db},
		detector,
		fx.events,
		nil,
		nil,
		nil,
	)
	require.NoError(t, err)
	fx.svc = svc
	return fx
}

func (fx *trackingFixture) emittedTypes() []enums.EventType {
	fx.emitLock.Lock()
	defer fx.emitLock.Unlock()
	types := make([]enums.EventType, 0, len(fx.emitted))
	for _, env := range fx.emitted {
		types = append(types, env.Type)
	}
	return types
}

func (fx *trackingFixture) seedStation(t *testing.T, code string, capacity int, deps ...string) {
	t.Helper()
	require.NoError(t, fx.db.Create(&models.Station{
		ID:          uuid.New(),
		Code:        code,
		Name:        "Station " + code,
		DurationMin: 10,
		Capacity:    capacity,
		Active:      true,
		DependsOn:   dbtypes.CodeList(deps),
	}).Error)
}

func (fx *trackingFixture) seedPatient(t *testing.T, examDate string, pack ...string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, fx.db.Create(&models.Patient{
		ID:          id,
		ChartNo:     "C-" + id.String()[:8],
		FullName:    "Test Patient",
		ExamDate:    examDate,
		ExamPackage: dbtypes.CodeList(pack),
		Active:      true,
	}).Error)
	return id
}

func (fx *trackingFixture) seedEquipment(t *testing.T, station string, health enums.EquipmentHealth) {
	t.Helper()
	require.NoError(t, fx.db.Create(&models.EquipmentUnit{
		ID:          uuid.New(),
		Name:        station + " unit",
		StationCode: station,
		Health:      health,
		Active:      true,
	}).Error)
}

func TestFullCheckupScenario(t *testing.T) {
	fx := newTrackingFixture(t)
	ctx := context.Background()
	examDate := "2026-08-24"

	fx.seedStation(t, "REG", 3)
	fx.seedStation(t, "BLOOD", 2)
	patientID := fx.seedPatient(t, examDate, "REG", "BLOOD")

	res, err := fx.svc.ReportArrival(ctx, ArrivalInput{
		PatientID: patientID, ExamDate: examDate, StationCode: "REG", ActorID: "desk-1",
	})
	require.NoError(t, err)
	require.Equal(t, enums.TrackingStatusWaiting, res.State.Status)

	res, err = fx.svc.ReportStart(ctx, StartInput{PatientID: patientID, ExamDate: examDate, ActorID: "nurse-1"})
	require.NoError(t, err)
	require.Equal(t, enums.TrackingStatusInExam, res.State.Status)

	// No next station yet, so the patient waits at REG for dispatch.
	res, err = fx.svc.ReportComplete(ctx, CompleteInput{PatientID: patientID, ExamDate: examDate, ActorID: "nurse-1"})
	require.NoError(t, err)
	require.Equal(t, enums.TrackingStatusWaiting, res.State.Status)
	require.False(t, res.CheckupCompleted)
	require.NotNil(t, res.State.StationCode)
	require.Equal(t, "REG", *res.State.StationCode)

	res, err = fx.svc.AssignStation(ctx, AssignInput{
		PatientID: patientID, ExamDate: examDate, StationCode: "BLOOD", ActorID: "escort-1",
	})
	require.NoError(t, err)
	require.Equal(t, "BLOOD", *res.State.NextStationCode)

	res, err = fx.svc.ReportArrival(ctx, ArrivalInput{
		PatientID: patientID, ExamDate: examDate, StationCode: "BLOOD", ActorID: "escort-1",
	})
	require.NoError(t, err)
	require.Equal(t, enums.TrackingStatusWaiting, res.State.Status)
	require.Nil(t, res.State.NextStationCode)

	_, err = fx.svc.ReportStart(ctx, StartInput{PatientID: patientID, ExamDate: examDate, ActorID: "nurse-2"})
	require.NoError(t, err)

	res, err = fx.svc.ReportComplete(ctx, CompleteInput{PatientID: patientID, ExamDate: examDate, ActorID: "nurse-2"})
	require.NoError(t, err)
	require.True(t, res.CheckupCompleted)
	require.Equal(t, enums.TrackingStatusCompleted, res.State.Status)

	var patient models.Patient
	require.NoError(t, fx.db.First(&patient, "id = ?", patientID).Error)
	require.True(t, patient.Completed)

	history, err := fx.svc.History(ctx, patientID, examDate, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, history.Entries, 7)
	require.Empty(t, history.NextCursor)
	require.Equal(t, enums.TrackingActionArrive, history.Entries[0].Action)
	require.Equal(t, enums.TrackingActionComplete, history.Entries[6].Action)

	types := fx.emittedTypes()
	require.Contains(t, types, enums.EventCheckupCompleted)
	require.Contains(t, types, enums.EventStationAssigned)

	// Terminal state rejects every further action.
	_, err = fx.svc.ReportStart(ctx, StartInput{PatientID: patientID, ExamDate: examDate, ActorID: "nurse-2"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInvalidTransition, typed.Code())
}

func TestCompleteMovesOnlyWhenNextStationSet(t *testing.T) {
	fx := newTrackingFixture(t)
	ctx := context.Background()
	examDate := "2026-08-24"

	fx.seedStation(t, "REG", 1)
	fx.seedStation(t, "BLOOD", 1)
	fx.seedStation(t, "XRAY", 1)
	patientID := fx.seedPatient(t, examDate, "REG", "BLOOD", "XRAY")

	_, err := fx.svc.ReportArrival(ctx, ArrivalInput{
		PatientID: patientID, ExamDate: examDate, StationCode: "REG", ActorID: "desk-1",
	})
	require.NoError(t, err)
	_, err = fx.svc.ReportStart(ctx, StartInput{PatientID: patientID, ExamDate: examDate, ActorID: "nurse-1"})
	require.NoError(t, err)

	res, err := fx.svc.ReportComplete(ctx, CompleteInput{PatientID: patientID, ExamDate: examDate, ActorID: "nurse-1"})
	require.NoError(t, err)
	require.Equal(t, enums.TrackingStatusWaiting, res.State.Status)
	require.Equal(t, "REG", *res.State.StationCode)

	_, err = fx.svc.AssignStation(ctx, AssignInput{
		PatientID: patientID, ExamDate: examDate, StationCode: "BLOOD", ActorID: "escort-1",
	})
	require.NoError(t, err)
	_, err = fx.svc.ReportArrival(ctx, ArrivalInput{
		PatientID: patientID, ExamDate: examDate, StationCode: "BLOOD", ActorID: "escort-1",
	})
	require.NoError(t, err)
	_, err = fx.svc.ReportStart(ctx, StartInput{PatientID: patientID, ExamDate: examDate, ActorID: "nurse-2"})
	require.NoError(t, err)

	// Dispatched mid-exam: completing now releases the patient as moving.
	_, err = fx.svc.AssignStation(ctx, AssignInput{
		PatientID: patientID, ExamDate: examDate, StationCode: "XRAY", ActorID: "escort-1",
	})
	require.NoError(t, err)

	res, err = fx.svc.ReportComplete(ctx, CompleteInput{PatientID: patientID, ExamDate: examDate, ActorID: "nurse-2"})
	require.NoError(t, err)
	require.Equal(t, enums.TrackingStatusMoving, res.State.Status)
	require.Nil(t, res.State.StationCode)
	require.NotNil(t, res.State.NextStationCode)
	require.Equal(t, "XRAY", *res.State.NextStationCode)
}

func TestWorstHealthReduction(t *testing.T) {
	require.Equal(t, enums.EquipmentHealth(""), worstHealth(nil))

	units := []models.EquipmentUnit{{Health: enums.EquipmentHealthNormal}}
	require.Equal(t, enums.EquipmentHealthNormal, worstHealth(units))

	units = append(units, models.EquipmentUnit{Health: enums.EquipmentHealthWarning})
	require.Equal(t, enums.EquipmentHealthWarning, worstHealth(units))

	units = append(units, models.EquipmentUnit{Health: enums.EquipmentHealthBroken})
	require.Equal(t, enums.EquipmentHealthBroken, worstHealth(units))
}

func TestStartRejectedBeforeArrival(t *testing.T) {
	fx := newTrackingFixture(t)
	ctx := context.Background()

	fx.seedStation(t, "REG", 1)
	patientID := fx.seedPatient(t, "2026-08-24", "REG")

	_, err := fx.svc.ReportStart(ctx, StartInput{PatientID: patientID, ExamDate: "2026-08-24", ActorID: "nurse-1"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestStartRejectsAtCapacity(t *testing.T) {
	fx := newTrackingFixture(t)
	ctx := context.Background()
	examDate := "2026-08-24"

	fx.seedStation(t, "XRAY", 1)
	first := fx.seedPatient(t, examDate, "XRAY")
	second := fx.seedPatient(t, examDate, "XRAY")

	for _, id := range []uuid.UUID{first, second} {
		_, err := fx.svc.ReportArrival(ctx, ArrivalInput{
			PatientID: id, ExamDate: examDate, StationCode: "XRAY", ActorID: "desk-1",
		})
		require.NoError(t, err)
	}

	_, err := fx.svc.ReportStart(ctx, StartInput{PatientID: first, ExamDate: examDate, ActorID: "tech-1"})
	require.NoError(t, err)

	_, err = fx.svc.ReportStart(ctx, StartInput{PatientID: second, ExamDate: examDate, ActorID: "tech-1"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeCapacityExceeded, typed.Code())
}

func TestAssignBlockedByBrokenEquipment(t *testing.T) {
	fx := newTrackingFixture(t)
	ctx := context.Background()
	examDate := "2026-08-24"

	fx.seedStation(t, "REG", 2)
	fx.seedStation(t, "MRI", 1)
	fx.seedEquipment(t, "MRI", enums.EquipmentHealthBroken)
	patientID := fx.seedPatient(t, examDate, "REG", "MRI")

	_, err := fx.svc.ReportArrival(ctx, ArrivalInput{
		PatientID: patientID, ExamDate: examDate, StationCode: "REG", ActorID: "desk-1",
	})
	require.NoError(t, err)

	_, err = fx.svc.AssignStation(ctx, AssignInput{
		PatientID: patientID, ExamDate: examDate, StationCode: "MRI", ActorID: "escort-1",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflictBlocked, typed.Code())
	require.NotNil(t, typed.Details())

	require.Contains(t, fx.emittedTypes(), enums.EventEquipmentBrokenHit)

	// The rejection must not leave a partial assignment behind.
	state, err := fx.svc.State(ctx, patientID, examDate)
	require.NoError(t, err)
	require.Nil(t, state.NextStationCode)
}

func TestAssignDependencyOnlyWarns(t *testing.T) {
	fx := newTrackingFixture(t)
	ctx := context.Background()
	examDate := "2026-08-24"

	fx.seedStation(t, "REG", 2)
	fx.seedStation(t, "ENDO", 2, "BLOOD")
	patientID := fx.seedPatient(t, examDate, "REG", "BLOOD", "ENDO")

	_, err := fx.svc.ReportArrival(ctx, ArrivalInput{
		PatientID: patientID, ExamDate: examDate, StationCode: "REG", ActorID: "desk-1",
	})
	require.NoError(t, err)

	res, err := fx.svc.AssignStation(ctx, AssignInput{
		PatientID: patientID, ExamDate: examDate, StationCode: "ENDO", ActorID: "escort-1",
	})
	require.NoError(t, err)
	require.Equal(t, "ENDO", *res.State.NextStationCode)
	require.Len(t, res.Warnings, 1)
	require.Equal(t, enums.ConflictKindDependency, res.Warnings[0].Kind)
}

func TestConcurrentStartsAdmitWithinCapacity(t *testing.T) {
	fx := newTrackingFixture(t)
	ctx := context.Background()
	examDate := "2026-08-24"

	const capacity = 2
	const contenders = 5

	fx.seedStation(t, "US", capacity)
	ids := make([]uuid.UUID, 0, contenders)
	for i := 0; i < contenders; i++ {
		id := fx.seedPatient(t, examDate, "US")
		_, err := fx.svc.ReportArrival(ctx, ArrivalInput{
			PatientID: id, ExamDate: examDate, StationCode: "US", ActorID: "desk-1",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	rejected := 0

	for _, id := range ids {
		wg.Add(1)
		go func(patientID uuid.UUID) {
			defer wg.Done()
			for {
				_, err := fx.svc.ReportStart(ctx, StartInput{
					PatientID: patientID, ExamDate: examDate, ActorID: "tech-1",
				})
				if pkgerrors.IsRetryable(err) {
					continue
				}
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					admitted++
					return
				}
				typed := pkgerrors.As(err)
				if typed != nil && typed.Code() == pkgerrors.CodeCapacityExceeded {
					rejected++
				}
				return
			}
		}(id)
	}
	wg.Wait()

	require.Equal(t, capacity, admitted)
	require.Equal(t, contenders-capacity, rejected)

	repo := NewRepository(fx.db)
	inExam, err := repo.CountByStatus(ctx, examDate, "US", enums.TrackingStatusInExam)
	require.NoError(t, err)
	require.EqualValues(t, capacity, inExam)
}
