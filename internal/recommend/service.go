package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/internal/patients"
	"github.com/oakhill-health/checkup-backend/internal/stations"
	"github.com/oakhill-health/checkup-backend/pkg/config"
	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
)

// TrackingReader is the slice of the tracking repository the scorer needs.
type TrackingReader interface {
	FindState(ctx context.Context, patientID uuid.UUID, examDate string) (*models.TrackingState, error)
	CountByStatus(ctx context.Context, examDate, stationCode string, status enums.TrackingStatus) (int64, error)
	CompletedStations(ctx context.Context, patientID uuid.UUID, examDate string) ([]string, error)
}

// EquipmentReader surfaces the worst health per station.
type EquipmentReader interface {
	HealthByStation(ctx context.Context) (map[string]enums.EquipmentHealth, error)
}

// Clock lets tests pin the fasting-window rule. time.Now satisfies it.
type Clock func() time.Time

// Service ranks a patient's remaining stations.
type Service interface {
	Suggest(ctx context.Context, input SuggestInput) (*Suggestion, error)
}

type service struct {
	patients  patients.Repository
	stations  stations.Repository
	tracking  TrackingReader
	equipment EquipmentReader
	cfg       config.EngineConfig
	now       Clock
}

// NewService builds the recommendation service. now may be nil and defaults
// to time.Now.
func NewService(
	patientsRepo patients.Repository,
	stationsRepo stations.Repository,
	trackingReader TrackingReader,
	equipmentReader EquipmentReader,
	cfg config.EngineConfig,
	now Clock,
) (Service, error) {
	if patientsRepo == nil {
		return nil, fmt.Errorf("patients repository required")
	}
	if stationsRepo == nil {
		return nil, fmt.Errorf("stations repository required")
	}
	if trackingReader == nil {
		return nil, fmt.Errorf("tracking reader required")
	}
	if equipmentReader == nil {
		return nil, fmt.Errorf("equipment reader required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		patients:  patientsRepo,
		stations:  stationsRepo,
		tracking:  trackingReader,
		equipment: equipmentReader,
		cfg:       cfg,
		now:       now,
	}, nil
}

func (s *service) Suggest(ctx context.Context, input SuggestInput) (*Suggestion, error) {
	if input.PatientID == uuid.Nil || input.ExamDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient id and exam date required")
	}

	patient, err := s.patients.FindByID(ctx, input.PatientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "patient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load patient")
	}
	if len(patient.ExamPackage) == 0 {
		return &Suggestion{Ranked: []ScoredStation{}}, nil
	}

	completed, err := s.tracking.CompletedStations(ctx, input.PatientID, input.ExamDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed stations")
	}

	remaining, err := s.remainingStations(ctx, patient, input.ExamDate, completed)
	if err != nil {
		return nil, err
	}
	if len(remaining) == 0 {
		return &Suggestion{Ranked: []ScoredStation{}}, nil
	}

	catalog, err := s.stations.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stations")
	}
	byCode := make(map[string]models.Station, len(catalog))
	for _, station := range catalog {
		byCode[station.Code] = station
	}

	health, err := s.equipment.HealthByStation(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read equipment health")
	}

	done := make(map[string]struct{}, len(completed))
	for _, code := range completed {
		done[code] = struct{}{}
	}

	now := s.now()
	scored := make([]ScoredStation, 0, len(remaining))
	for _, code := range remaining {
		station, ok := byCode[code]
		if !ok {
			// Package references a retired station; nothing to schedule.
			continue
		}

		waiting, err := s.tracking.CountByStatus(ctx, input.ExamDate, code, enums.TrackingStatusWaiting)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count waiting")
		}

		missing := 0
		for _, dep := range station.DependsOn {
			if _, ok := done[dep]; !ok {
				missing++
			}
		}

		score, reasons := scoreCandidate(candidate{
			station:     station,
			waiting:     waiting,
			health:      health[code],
			missingDeps: missing,
		}, now, s.cfg)

		scored = append(scored, ScoredStation{
			StationCode: code,
			Score:       score,
			Reasons:     reasons,
		})
	}

	rank(scored)

	suggestion := &Suggestion{Ranked: scored, Remaining: len(scored)}
	if len(scored) > 0 {
		best := scored[0]
		suggestion.Best = &best
	}
	return suggestion, nil
}

// remainingStations is the exam package minus completed exams and the
// station the patient currently occupies or is already headed to.
func (s *service) remainingStations(ctx context.Context, patient *models.Patient, examDate string, completed []string) ([]string, error) {
	exclude := make(map[string]struct{}, len(completed)+2)
	for _, code := range completed {
		exclude[code] = struct{}{}
	}

	state, err := s.tracking.FindState(ctx, patient.ID, examDate)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking state")
	}
	if state != nil {
		if state.Status.IsTerminal() {
			return nil, nil
		}
		if state.StationCode != nil {
			exclude[*state.StationCode] = struct{}{}
		}
		if state.NextStationCode != nil {
			exclude[*state.NextStationCode] = struct{}{}
		}
	}

	var remaining []string
	for _, code := range patient.ExamPackage {
		if _, ok := exclude[code]; !ok {
			remaining = append(remaining, code)
		}
	}
	return remaining, nil
}
