package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/internal/conflict"
	"github.com/oakhill-health/checkup-backend/internal/patients"
	"github.com/oakhill-health/checkup-backend/internal/stations"
	"github.com/oakhill-health/checkup-backend/pkg/db"
	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/events"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
	"github.com/oakhill-health/checkup-backend/pkg/metrics"
	"github.com/oakhill-health/checkup-backend/pkg/pagination"
)

const examDateLayout = "2006-01-02"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// EquipmentReader surfaces a station's active units. Implemented by the
// equipment repository.
type EquipmentReader interface {
	ListByStation(ctx context.Context, stationCode string) ([]models.EquipmentUnit, error)
}

// SnapshotInvalidator drops the cached occupancy snapshot after a committed
// transition. Implemented by the occupancy service.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, examDate string) error
}

type service struct {
	repo      Repository
	patients  patients.Repository
	stations  stations.Repository
	equipment EquipmentReader
	tx        txRunner
	detector  *conflict.Detector
	events    events.Publisher
	metrics   *metrics.EngineMetrics
	snapshots SnapshotInvalidator
	logg      *logger.Logger
}

// NewService builds the tracking state machine with its required
// collaborators. metrics, snapshots, and logg may be nil.
func NewService(
	repo Repository,
	patientsRepo patients.Repository,
	stationsRepo stations.Repository,
	equipmentReader EquipmentReader,
	tx txRunner,
	detector *conflict.Detector,
	publisher events.Publisher,
	engineMetrics *metrics.EngineMetrics,
	snapshots SnapshotInvalidator,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tracking repository required")
	}
	if patientsRepo == nil {
		return nil, fmt.Errorf("patients repository required")
	}
	if stationsRepo == nil {
		return nil, fmt.Errorf("stations repository required")
	}
	if equipmentReader == nil {
		return nil, fmt.Errorf("equipment reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if detector == nil {
		return nil, fmt.Errorf("conflict detector required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	return &service{
		repo:      repo,
		patients:  patientsRepo,
		stations:  stationsRepo,
		equipment: equipmentReader,
		tx:        tx,
		detector:  detector,
		events:    publisher,
		metrics:   engineMetrics,
		snapshots: snapshots,
		logg:      logg,
	}, nil
}

func (s *service) ReportArrival(ctx context.Context, input ArrivalInput) (*TransitionResult, error) {
	if err := validateIdentity(input.PatientID, input.ExamDate, input.ActorID); err != nil {
		return nil, err
	}
	if input.StationCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "station code required")
	}

	patient, err := s.loadPatient(ctx, input.PatientID, input.ExamDate)
	if err != nil {
		return nil, err
	}

	station, err := s.loadStation(ctx, input.StationCode)
	if err != nil {
		return nil, err
	}

	var state *models.TrackingState
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindStateForUpdate(ctx, patient.ID, input.ExamDate)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking state")
		}

		code := station.Code
		if existing == nil {
			// First arrival of the day creates the live row.
			state = &models.TrackingState{
				ID:          uuid.New(),
				PatientID:   patient.ID,
				ExamDate:    input.ExamDate,
				StationCode: &code,
				Status:      enums.TrackingStatusWaiting,
				UpdatedBy:   input.ActorID,
			}
			if err := repo.CreateState(ctx, state); err != nil {
				if db.IsUniqueViolation(err, "uq_tracking_patient_date") {
					return pkgerrors.New(pkgerrors.CodeConcurrency, "tracking state created concurrently")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tracking state")
			}
			return repo.AppendHistory(ctx, historyEntry(state, enums.TrackingActionArrive, input.ActorID, input.Note))
		}

		if existing.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "checkup already completed")
		}

		// Arrival is accepted from moving and, permissively, from waiting
		// so a patient walking to a different queue does not strand the
		// record. An in-progress exam must complete first.
		if existing.Status == enums.TrackingStatusInExam {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot arrive while %s", existing.Status))
		}

		expected := existing.Version
		existing.Status = enums.TrackingStatusWaiting
		existing.StationCode = &code
		if existing.NextStationCode != nil && *existing.NextStationCode == code {
			existing.NextStationCode = nil
		}
		existing.UpdatedBy = input.ActorID

		if err := s.commit(ctx, repo, existing, expected); err != nil {
			return err
		}
		state = existing
		return repo.AppendHistory(ctx, historyEntry(existing, enums.TrackingActionArrive, input.ActorID, input.Note))
	})
	if err != nil {
		return nil, mapTxError(err)
	}

	s.afterCommit(ctx, enums.TrackingActionArrive, enums.EventPatientArrived, input.ActorID, state)
	return &TransitionResult{State: state}, nil
}

func (s *service) ReportStart(ctx context.Context, input StartInput) (*TransitionResult, error) {
	if err := validateIdentity(input.PatientID, input.ExamDate, input.ActorID); err != nil {
		return nil, err
	}

	var state *models.TrackingState
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := s.lockState(ctx, repo, input.PatientID, input.ExamDate)
		if err != nil {
			return err
		}

		next, ok := NextStatus(existing.Status, enums.TrackingActionStart)
		if !ok || existing.StationCode == nil {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot start exam while %s", existing.Status))
		}

		stationCode := *existing.StationCode
		station, err := s.stations.WithTx(tx).FindByCode(ctx, stationCode)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load station")
		}

		// The station row is the admission latch: concurrent starts for the
		// same station serialize here, making the count below authoritative.
		if err := repo.LockStation(ctx, stationCode); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock station")
		}

		inExam, err := repo.CountByStatus(ctx, input.ExamDate, stationCode, enums.TrackingStatusInExam)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count in-exam")
		}
		capacity := station.Capacity
		if capacity <= 0 {
			capacity = 1
		}
		if inExam >= int64(capacity) {
			s.metrics.IncCapacityRejection()
			return pkgerrors.New(pkgerrors.CodeCapacityExceeded, "station is at capacity").
				WithDetails(map[string]any{
					"station":  stationCode,
					"in_exam":  inExam,
					"capacity": station.Capacity,
				})
		}

		expected := existing.Version
		existing.Status = next
		existing.UpdatedBy = input.ActorID

		if err := s.commit(ctx, repo, existing, expected); err != nil {
			return err
		}
		state = existing
		return repo.AppendHistory(ctx, historyEntry(existing, enums.TrackingActionStart, input.ActorID, nil))
	})
	if err != nil {
		return nil, mapTxError(err)
	}

	s.afterCommit(ctx, enums.TrackingActionStart, enums.EventExamStarted, input.ActorID, state)
	return &TransitionResult{State: state}, nil
}

func (s *service) ReportComplete(ctx context.Context, input CompleteInput) (*TransitionResult, error) {
	if err := validateIdentity(input.PatientID, input.ExamDate, input.ActorID); err != nil {
		return nil, err
	}

	var state *models.TrackingState
	var finishedStation string
	var checkupDone bool

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := s.lockState(ctx, repo, input.PatientID, input.ExamDate)
		if err != nil {
			return err
		}

		next, ok := NextStatus(existing.Status, enums.TrackingActionComplete)
		if !ok || existing.StationCode == nil {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot complete exam while %s", existing.Status))
		}
		finishedStation = *existing.StationCode

		patient, err := s.patients.WithTx(tx).FindByID(ctx, input.PatientID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load patient")
		}

		done, err := repo.CompletedStations(ctx, input.PatientID, input.ExamDate)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed stations")
		}
		done = append(done, finishedStation)
		checkupDone = coversPackage(patient.ExamPackage, done)

		// Without a dispatched next station the patient holds at the
		// finished station instead of wandering; an assignment or the next
		// arrival moves them on.
		resulting := next
		switch {
		case checkupDone:
			resulting = enums.TrackingStatusCompleted
		case existing.NextStationCode == nil:
			resulting = enums.TrackingStatusWaiting
		}

		stationCopy := finishedStation
		entry := &models.HistoryEntry{
			ID:          uuid.New(),
			PatientID:   existing.PatientID,
			ExamDate:    existing.ExamDate,
			StationCode: &stationCopy,
			Status:      resulting,
			Action:      enums.TrackingActionComplete,
			ActorID:     input.ActorID,
			Note:        input.Note,
			CreatedAt:   time.Now().UTC(),
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append history")
		}

		expected := existing.Version
		if resulting != enums.TrackingStatusWaiting {
			existing.StationCode = nil
		}
		existing.Status = resulting
		existing.UpdatedBy = input.ActorID
		if checkupDone {
			existing.NextStationCode = nil
			if err := s.patients.WithTx(tx).MarkCompleted(ctx, patient.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark patient completed")
			}
		}

		if err := s.commit(ctx, repo, existing, expected); err != nil {
			return err
		}
		state = existing
		return nil
	})
	if err != nil {
		return nil, mapTxError(err)
	}

	s.afterCommitStation(ctx, enums.TrackingActionComplete, enums.EventExamCompleted, input.ActorID, state, &finishedStation)
	if checkupDone {
		_ = s.events.Emit(ctx, events.Event{
			Type:  enums.EventCheckupCompleted,
			Actor: &events.ActorRef{ActorID: input.ActorID},
			Data: TransitionEvent{
				PatientID: state.PatientID,
				ExamDate:  state.ExamDate,
				Action:    enums.TrackingActionComplete,
				Status:    state.Status,
			},
		})
	}
	return &TransitionResult{State: state, CheckupCompleted: checkupDone}, nil
}

func (s *service) AssignStation(ctx context.Context, input AssignInput) (*TransitionResult, error) {
	if err := validateIdentity(input.PatientID, input.ExamDate, input.ActorID); err != nil {
		return nil, err
	}
	if input.StationCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "station code required")
	}

	station, err := s.loadStation(ctx, input.StationCode)
	if err != nil {
		return nil, err
	}

	var state *models.TrackingState
	var findings []conflict.Finding

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := s.lockState(ctx, repo, input.PatientID, input.ExamDate)
		if err != nil {
			return err
		}
		if existing.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "checkup already completed")
		}

		checkInput, err := s.gatherCheckInput(ctx, repo, *station, input)
		if err != nil {
			return err
		}

		findings = s.detector.Check(checkInput)
		for _, f := range findings {
			s.metrics.IncFinding(f.Severity.String())
		}
		if conflict.HasBlock(findings) {
			s.emitEquipmentBlock(ctx, input, findings)
			return pkgerrors.New(pkgerrors.CodeConflictBlocked, "assignment blocked by conflicts").
				WithDetails(map[string]any{"findings": findings})
		}

		code := station.Code
		expected := existing.Version
		existing.NextStationCode = &code
		existing.UpdatedBy = input.ActorID

		if err := s.commit(ctx, repo, existing, expected); err != nil {
			return err
		}
		state = existing

		entry := historyEntry(existing, enums.TrackingActionAssign, input.ActorID, nil)
		entry.StationCode = &code
		return repo.AppendHistory(ctx, entry)
	})
	if err != nil {
		return nil, mapTxError(err)
	}

	s.afterCommit(ctx, enums.TrackingActionAssign, enums.EventStationAssigned, input.ActorID, state)
	return &TransitionResult{State: state, Warnings: conflict.Warnings(findings)}, nil
}

func (s *service) State(ctx context.Context, patientID uuid.UUID, examDate string) (*models.TrackingState, error) {
	if patientID == uuid.Nil || examDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient id and exam date required")
	}
	state, err := s.repo.FindState(ctx, patientID, examDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "patient has not arrived")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking state")
	}
	return state, nil
}

func (s *service) History(ctx context.Context, patientID uuid.UUID, examDate string, params pagination.Params) (*HistoryPage, error) {
	if patientID == uuid.Nil || examDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient id and exam date required")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	entries, err := s.repo.ListHistory(ctx, patientID, examDate, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
	}

	page := &HistoryPage{Entries: entries}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) gatherCheckInput(ctx context.Context, repo Repository, station models.Station, input AssignInput) (conflict.CheckInput, error) {
	inExam, err := repo.CountByStatus(ctx, input.ExamDate, station.Code, enums.TrackingStatusInExam)
	if err != nil {
		return conflict.CheckInput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count in-exam")
	}
	waiting, err := repo.CountByStatus(ctx, input.ExamDate, station.Code, enums.TrackingStatusWaiting)
	if err != nil {
		return conflict.CheckInput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count waiting")
	}
	incoming, err := repo.CountIncoming(ctx, input.ExamDate, station.Code, input.PatientID)
	if err != nil {
		return conflict.CheckInput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count incoming")
	}
	completed, err := repo.CompletedStations(ctx, input.PatientID, input.ExamDate)
	if err != nil {
		return conflict.CheckInput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed stations")
	}
	units, err := s.equipment.ListByStation(ctx, station.Code)
	if err != nil {
		return conflict.CheckInput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list equipment")
	}

	return conflict.CheckInput{
		Station:        station,
		InExam:         inExam,
		Waiting:        waiting,
		Incoming:       incoming,
		EquipmentWorst: worstHealth(units),
		Completed:      completed,
	}, nil
}

func (s *service) loadPatient(ctx context.Context, patientID uuid.UUID, examDate string) (*models.Patient, error) {
	patient, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "patient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load patient")
	}
	if !patient.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient is not active")
	}
	if patient.ExamDate != examDate {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient is not booked for this exam date")
	}
	return patient, nil
}

func (s *service) loadStation(ctx context.Context, code string) (*models.Station, error) {
	station, err := s.stations.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "station not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load station")
	}
	if !station.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "station is not active")
	}
	return station, nil
}

func (s *service) lockState(ctx context.Context, repo Repository, patientID uuid.UUID, examDate string) (*models.TrackingState, error) {
	state, err := repo.FindStateForUpdate(ctx, patientID, examDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "patient has not arrived")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking state")
	}
	return state, nil
}

func (s *service) commit(ctx context.Context, repo Repository, state *models.TrackingState, expectedVersion int64) error {
	rows, err := repo.CommitState(ctx, state, expectedVersion)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit tracking state")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeConcurrency, "tracking state changed concurrently")
	}
	return nil
}

func (s *service) afterCommit(ctx context.Context, action enums.TrackingAction, eventType enums.EventType, actorID string, state *models.TrackingState) {
	s.afterCommitStation(ctx, action, eventType, actorID, state, state.StationCode)
}

func (s *service) afterCommitStation(ctx context.Context, action enums.TrackingAction, eventType enums.EventType, actorID string, state *models.TrackingState, stationCode *string) {
	s.metrics.IncTransition(action.String())

	if s.logg != nil {
		logCtx := s.logg.WithPatientID(ctx, state.PatientID.String())
		if stationCode != nil {
			logCtx = s.logg.WithStation(logCtx, *stationCode)
		}
		s.logg.Info(logCtx, "tracking."+action.String())
	}

	_ = s.events.Emit(ctx, events.Event{
		Type:  eventType,
		Actor: &events.ActorRef{ActorID: actorID},
		Data: TransitionEvent{
			PatientID:   state.PatientID,
			ExamDate:    state.ExamDate,
			Action:      action,
			Status:      state.Status,
			StationCode: stationCode,
			NextStation: state.NextStationCode,
		},
	})

	if s.snapshots != nil {
		_ = s.snapshots.Invalidate(ctx, state.ExamDate)
	}
}

func (s *service) emitEquipmentBlock(ctx context.Context, input AssignInput, findings []conflict.Finding) {
	for _, f := range findings {
		if f.Kind == enums.ConflictKindEquipment && f.Severity == enums.FindingSeverityBlock {
			_ = s.events.Emit(ctx, events.Event{
				Type:  enums.EventEquipmentBrokenHit,
				Actor: &events.ActorRef{ActorID: input.ActorID},
				Data: map[string]any{
					"patient_id": input.PatientID,
					"exam_date":  input.ExamDate,
					"station":    input.StationCode,
				},
			})
			return
		}
	}
}

func validateIdentity(patientID uuid.UUID, examDate, actorID string) error {
	if patientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "patient id required")
	}
	if actorID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	if _, err := time.Parse(examDateLayout, examDate); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "exam date must be YYYY-MM-DD")
	}
	return nil
}

func historyEntry(state *models.TrackingState, action enums.TrackingAction, actorID string, note *string) *models.HistoryEntry {
	return &models.HistoryEntry{
		ID:          uuid.New(),
		PatientID:   state.PatientID,
		ExamDate:    state.ExamDate,
		StationCode: state.StationCode,
		Status:      state.Status,
		Action:      action,
		ActorID:     actorID,
		Note:        note,
		CreatedAt:   time.Now().UTC(),
	}
}

// worstHealth reduces a station's active units to the single worst health.
// No units yields the empty value, which the detector reads as "no tracked
// equipment".
func worstHealth(units []models.EquipmentUnit) enums.EquipmentHealth {
	var worst enums.EquipmentHealth
	for _, unit := range units {
		if healthSeverity(unit.Health) > healthSeverity(worst) {
			worst = unit.Health
		}
	}
	return worst
}

func healthSeverity(h enums.EquipmentHealth) int {
	switch h {
	case enums.EquipmentHealthBroken:
		return 2
	case enums.EquipmentHealthWarning:
		return 1
	case enums.EquipmentHealthNormal:
		return 0
	default:
		return -1
	}
}

func coversPackage(required []string, done []string) bool {
	if len(required) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(done))
	for _, code := range done {
		set[code] = struct{}{}
	}
	for _, code := range required {
		if _, ok := set[code]; !ok {
			return false
		}
	}
	return true
}

// mapTxError converts store-level contention surfaced by the transaction into
// the retryable concurrency code.
func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsBusy(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConcurrency, err, "storage contention")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "tracking transaction failed")
}
