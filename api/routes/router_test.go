package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/oakhill-health/checkup-backend/internal/equipment"
	"github.com/oakhill-health/checkup-backend/internal/escort"
	"github.com/oakhill-health/checkup-backend/internal/occupancy"
	"github.com/oakhill-health/checkup-backend/internal/patients"
	"github.com/oakhill-health/checkup-backend/internal/recommend"
	"github.com/oakhill-health/checkup-backend/internal/stats"
	"github.com/oakhill-health/checkup-backend/internal/tracking"
	"github.com/oakhill-health/checkup-backend/pkg/config"
	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
	"github.com/oakhill-health/checkup-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubStationsService struct{}

func (stubStationsService) List(context.Context) ([]models.Station, error) {
	return []models.Station{{Code: "BLOOD"}}, nil
}

func (stubStationsService) Get(_ context.Context, code string) (*models.Station, error) {
	return &models.Station{Code: code}, nil
}

func (stubStationsService) DependencyGraph(context.Context) (map[string][]string, error) {
	return map[string][]string{}, nil
}

type stubEquipmentService struct{}

func (stubEquipmentService) List(context.Context) ([]models.EquipmentUnit, error) {
	return nil, nil
}

func (stubEquipmentService) HealthByStation(context.Context) (map[string]enums.EquipmentHealth, error) {
	return nil, nil
}

func (stubEquipmentService) Report(context.Context, equipment.ReportInput) (*models.EquipmentUnit, error) {
	return &models.EquipmentUnit{}, nil
}

func (stubEquipmentService) Logs(context.Context, uuid.UUID, pagination.Params) (*equipment.LogPage, error) {
	return &equipment.LogPage{}, nil
}

type stubPatientsService struct{}

func (stubPatientsService) Get(context.Context, uuid.UUID) (*models.Patient, error) {
	return &models.Patient{}, nil
}

func (stubPatientsService) GetByChartNo(context.Context, string) (*models.Patient, error) {
	return &models.Patient{}, nil
}

func (stubPatientsService) Roster(context.Context, string) ([]patients.RosterEntry, error) {
	return nil, nil
}

type stubTrackingService struct {
	arrivals int
}

func (s *stubTrackingService) ReportArrival(context.Context, tracking.ArrivalInput) (*tracking.TransitionResult, error) {
	s.arrivals++
	return &tracking.TransitionResult{State: &models.TrackingState{}}, nil
}

func (s *stubTrackingService) ReportStart(context.Context, tracking.StartInput) (*tracking.TransitionResult, error) {
	return &tracking.TransitionResult{State: &models.TrackingState{}}, nil
}

func (s *stubTrackingService) ReportComplete(context.Context, tracking.CompleteInput) (*tracking.TransitionResult, error) {
	return &tracking.TransitionResult{State: &models.TrackingState{}}, nil
}

func (s *stubTrackingService) AssignStation(context.Context, tracking.AssignInput) (*tracking.TransitionResult, error) {
	return &tracking.TransitionResult{State: &models.TrackingState{}}, nil
}

func (s *stubTrackingService) State(context.Context, uuid.UUID, string) (*models.TrackingState, error) {
	return &models.TrackingState{}, nil
}

func (s *stubTrackingService) History(context.Context, uuid.UUID, string, pagination.Params) (*tracking.HistoryPage, error) {
	return &tracking.HistoryPage{}, nil
}

type stubOccupancyService struct{}

func (stubOccupancyService) Snapshot(_ context.Context, examDate string) (*occupancy.Snapshot, error) {
	return &occupancy.Snapshot{ExamDate: examDate}, nil
}

func (stubOccupancyService) Invalidate(context.Context, string) error { return nil }

func (stubOccupancyService) QueuePosition(context.Context, uuid.UUID, string) (*occupancy.QueuePosition, error) {
	return &occupancy.QueuePosition{}, nil
}

type stubRecommendService struct{}

func (stubRecommendService) Suggest(context.Context, recommend.SuggestInput) (*recommend.Suggestion, error) {
	return &recommend.Suggestion{}, nil
}

type stubEscortService struct{}

func (stubEscortService) Assign(context.Context, escort.AssignInput) (*models.EscortAssignment, error) {
	return &models.EscortAssignment{}, nil
}

func (stubEscortService) ActiveForPatient(context.Context, uuid.UUID, string) (*models.EscortAssignment, error) {
	return &models.EscortAssignment{}, nil
}

func (stubEscortService) ActiveForStaff(context.Context, string, string) (*models.EscortAssignment, error) {
	return &models.EscortAssignment{}, nil
}

func (stubEscortService) ListByDate(context.Context, string) ([]models.EscortAssignment, error) {
	return nil, nil
}

type stubStatsService struct{}

func (stubStatsService) Daily(_ context.Context, examDate string) (*stats.DailyStats, error) {
	return &stats.DailyStats{ExamDate: examDate}, nil
}

func (stubStatsService) StationPerformance(context.Context, string) ([]stats.StationPerformance, error) {
	return nil, nil
}

func (stubStatsService) AvgDurations(context.Context, string, string) (map[string]float64, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, trackingSvc tracking.Service) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "dev"
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})

	return NewRouter(cfg, logg, stubPinger{}, stubPinger{}, prometheus.NewRegistry(), Services{
		Stations:  stubStationsService{},
		Equipment: stubEquipmentService{},
		Patients:  stubPatientsService{},
		Tracking:  trackingSvc,
		Occupancy: stubOccupancyService{},
		Recommend: stubRecommendService{},
		Escort:    stubEscortService{},
		Stats:     stubStatsService{},
	})
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, &stubTrackingService{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	router := newTestRouter(t, &stubTrackingService{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMutationRequiresActorHeader(t *testing.T) {
	trackingSvc := &stubTrackingService{}
	router := newTestRouter(t, trackingSvc)

	body := `{"patient_id":"` + uuid.NewString() + `","exam_date":"2026-08-24","station_code":"BLOOD"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tracking/arrival", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, trackingSvc.arrivals)

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "VALIDATION_ERROR", payload.Error.Code)
}

func TestArrivalAcceptedWithActorHeader(t *testing.T) {
	trackingSvc := &stubTrackingService{}
	router := newTestRouter(t, trackingSvc)

	body := `{"patient_id":"` + uuid.NewString() + `","exam_date":"2026-08-24","station_code":"BLOOD"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tracking/arrival", strings.NewReader(body))
	req.Header.Set("X-Actor-Id", "nurse-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, trackingSvc.arrivals)
}

func TestReadEndpointsRespond(t *testing.T) {
	router := newTestRouter(t, &stubTrackingService{})

	paths := []string{
		"/api/v1/stations",
		"/api/v1/stations/BLOOD",
		"/api/v1/stations/dependencies",
		"/api/v1/occupancy?exam_date=2026-08-24",
		"/api/v1/stats/daily?exam_date=2026-08-24",
		"/api/v1/escorts?exam_date=2026-08-24",
		"/api/v1/patients/" + uuid.NewString() + "/recommendation",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(t, &stubTrackingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tracking/start", strings.NewReader(`{"patient_id":`))
	req.Header.Set("X-Actor-Id", "nurse-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
