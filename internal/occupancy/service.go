package occupancy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/internal/stations"
	"github.com/oakhill-health/checkup-backend/pkg/config"
	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/metrics"
)

// SnapshotCache is the subset of the redis client the snapshot path uses.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SnapshotKey(examDate string) string
}

// StateFinder reads one live tracking row. Implemented by the tracking
// repository.
type StateFinder interface {
	FindState(ctx context.Context, patientID uuid.UUID, examDate string) (*models.TrackingState, error)
}

// Service produces the occupancy board and queue positions.
type Service interface {
	Snapshot(ctx context.Context, examDate string) (*Snapshot, error)
	Invalidate(ctx context.Context, examDate string) error
	QueuePosition(ctx context.Context, patientID uuid.UUID, examDate string) (*QueuePosition, error)
}

type service struct {
	repo     Repository
	stations stations.Repository
	states   StateFinder
	cache    SnapshotCache
	metrics  *metrics.EngineMetrics
	cfg      config.EngineConfig
}

// NewService builds the occupancy service. cache and engineMetrics may be
// nil; without a cache every read recomputes.
func NewService(
	repo Repository,
	stationsRepo stations.Repository,
	states StateFinder,
	cache SnapshotCache,
	engineMetrics *metrics.EngineMetrics,
	cfg config.EngineConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("occupancy repository required")
	}
	if stationsRepo == nil {
		return nil, fmt.Errorf("stations repository required")
	}
	if states == nil {
		return nil, fmt.Errorf("state finder required")
	}
	return &service{
		repo:     repo,
		stations: stationsRepo,
		states:   states,
		cache:    cache,
		metrics:  engineMetrics,
		cfg:      cfg,
	}, nil
}

func (s *service) Snapshot(ctx context.Context, examDate string) (*Snapshot, error) {
	if examDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exam date required")
	}

	// A miss, a cache outage, or an undecodable payload all degrade to a
	// recompute, never to an error.
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, s.cache.SnapshotKey(examDate)); err == nil {
			var cached Snapshot
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return &cached, nil
			}
		}
	}

	snapshot, err := s.rebuild(ctx, examDate)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, jsonErr := json.Marshal(snapshot); jsonErr == nil {
			_ = s.cache.Set(ctx, s.cache.SnapshotKey(examDate), raw, s.cfg.SnapshotTTL)
		}
	}
	return snapshot, nil
}

func (s *service) rebuild(ctx context.Context, examDate string) (*Snapshot, error) {
	start := time.Now()

	catalog, err := s.stations.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stations")
	}
	counts, err := s.repo.CountsByStation(ctx, examDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count station load")
	}

	loads := make([]StationLoad, 0, len(catalog))
	for _, station := range catalog {
		c := counts[station.Code]
		capacity := station.Capacity
		if capacity <= 0 {
			capacity = 1
		}
		utilization := float64(c.InExam) / float64(capacity)

		loads = append(loads, StationLoad{
			Code:             station.Code,
			Name:             station.Name,
			Capacity:         capacity,
			Waiting:          c.Waiting,
			InExam:           c.InExam,
			Incoming:         c.Incoming,
			Utilization:      utilization,
			Level:            enums.LevelForUtilization(utilization, s.cfg.WarnUtilization),
			EstimatedWaitMin: estimatedWait(c.Waiting, c.InExam, station.DurationMin),
		})
	}

	s.metrics.ObserveSnapshotRebuild(time.Since(start))

	return &Snapshot{
		ExamDate:    examDate,
		GeneratedAt: time.Now().UTC(),
		Stations:    loads,
	}, nil
}

func (s *service) Invalidate(ctx context.Context, examDate string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, s.cache.SnapshotKey(examDate))
}

func (s *service) QueuePosition(ctx context.Context, patientID uuid.UUID, examDate string) (*QueuePosition, error) {
	if patientID == uuid.Nil || examDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient id and exam date required")
	}

	state, err := s.states.FindState(ctx, patientID, examDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "patient has not arrived")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking state")
	}
	if state.Status != enums.TrackingStatusWaiting || state.StationCode == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient is not waiting in a queue")
	}

	ahead, err := s.repo.WaitingAhead(ctx, examDate, *state.StationCode, state.UpdatedAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count queue")
	}

	station, err := s.stations.FindByCode(ctx, *state.StationCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load station")
	}

	return &QueuePosition{
		StationCode:      *state.StationCode,
		Position:         ahead + 1,
		EstimatedWaitMin: int(ahead) * station.DurationMin,
	}, nil
}

// estimatedWait follows the floor heuristic: everyone ahead takes a full
// slot, plus half a slot when an exam is already underway.
func estimatedWait(waiting, inExam int64, durationMin int) int {
	wait := int(waiting) * durationMin
	if inExam > 0 {
		wait += durationMin / 2
	}
	return wait
}
