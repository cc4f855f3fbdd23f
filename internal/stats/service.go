package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
)

// Clinic hours bound the hourly buckets; entries outside are counted in the
// daily totals but not bucketed.
const (
	clinicOpenHour  = 7
	clinicCloseHour = 17
)

// Exam durations outside this window are treated as data entry noise and
// excluded from averages.
const (
	minExamDuration = time.Minute
	maxExamDuration = 120 * time.Minute
)

// Service computes reporting aggregates from the history log.
type Service interface {
	Daily(ctx context.Context, examDate string) (*DailyStats, error)
	StationPerformance(ctx context.Context, examDate string) ([]StationPerformance, error)
	AvgDurations(ctx context.Context, fromDate, toDate string) (map[string]float64, error)
}

type service struct {
	repo Repository
}

// NewService builds the stats service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stats repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Daily(ctx context.Context, examDate string) (*DailyStats, error) {
	if examDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exam date required")
	}
	entries, err := s.repo.ListByDate(ctx, examDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
	}

	out := &DailyStats{ExamDate: examDate}

	buckets := make(map[int]*HourlyBucket)
	for hour := clinicOpenHour; hour <= clinicCloseHour; hour++ {
		buckets[hour] = &HourlyBucket{Hour: hour}
	}

	arrived := make(map[uuid.UUID]struct{})
	for _, entry := range entries {
		bucket := buckets[entry.CreatedAt.Hour()]

		switch entry.Action {
		case enums.TrackingActionArrive:
			// Only the patient's first arrival of the day counts, in the
			// totals and in the hourly buckets alike.
			if _, seen := arrived[entry.PatientID]; seen {
				break
			}
			arrived[entry.PatientID] = struct{}{}
			out.Arrivals++
			if bucket != nil {
				bucket.Arrivals++
			}
		case enums.TrackingActionStart:
			out.ExamsStarted++
			if bucket != nil {
				bucket.Starts++
			}
		case enums.TrackingActionComplete:
			out.ExamsCompleted++
			if entry.Status == enums.TrackingStatusCompleted {
				out.CheckupsCompleted++
			}
			if bucket != nil {
				bucket.Completes++
			}
		}
	}

	out.Hourly = make([]HourlyBucket, 0, len(buckets))
	for hour := clinicOpenHour; hour <= clinicCloseHour; hour++ {
		out.Hourly = append(out.Hourly, *buckets[hour])
	}
	return out, nil
}

func (s *service) StationPerformance(ctx context.Context, examDate string) ([]StationPerformance, error) {
	if examDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exam date required")
	}
	entries, err := s.repo.ListByDate(ctx, examDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
	}

	durations := matchDurations(entries)
	completes := make(map[string]int)
	for _, entry := range entries {
		if entry.Action == enums.TrackingActionComplete && entry.StationCode != nil {
			completes[*entry.StationCode]++
		}
	}

	codes := make([]string, 0, len(completes))
	for code := range completes {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]StationPerformance, 0, len(codes))
	for _, code := range codes {
		out = append(out, StationPerformance{
			StationCode:    code,
			ExamsCompleted: completes[code],
			AvgDurationMin: average(durations[code]),
		})
	}
	return out, nil
}

func (s *service) AvgDurations(ctx context.Context, fromDate, toDate string) (map[string]float64, error) {
	if fromDate == "" || toDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range required")
	}
	entries, err := s.repo.ListRange(ctx, fromDate, toDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
	}

	out := make(map[string]float64)
	for code, samples := range matchDurations(entries) {
		if len(samples) > 0 {
			out[code] = average(samples)
		}
	}
	return out, nil
}

// matchDurations pairs each start with the patient's next complete at the
// same station. Entries arrive ordered by creation time.
func matchDurations(entries []models.HistoryEntry) map[string][]time.Duration {
	type openExam struct {
		station string
		started time.Time
	}

	open := make(map[uuid.UUID]*openExam)
	out := make(map[string][]time.Duration)

	for _, entry := range entries {
		switch entry.Action {
		case enums.TrackingActionStart:
			if entry.StationCode != nil {
				open[entry.PatientID] = &openExam{station: *entry.StationCode, started: entry.CreatedAt}
			}
		case enums.TrackingActionComplete:
			started, ok := open[entry.PatientID]
			if !ok || entry.StationCode == nil || started.station != *entry.StationCode {
				continue
			}
			delete(open, entry.PatientID)

			d := entry.CreatedAt.Sub(started.started)
			if d < minExamDuration || d > maxExamDuration {
				continue
			}
			out[started.station] = append(out[started.station], d)
		}
	}
	return out
}

func average(samples []time.Duration) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return total.Minutes() / float64(len(samples))
}
