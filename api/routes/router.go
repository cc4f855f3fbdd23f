package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oakhill-health/checkup-backend/api/controllers"
	"github.com/oakhill-health/checkup-backend/api/middleware"
	"github.com/oakhill-health/checkup-backend/internal/equipment"
	"github.com/oakhill-health/checkup-backend/internal/escort"
	"github.com/oakhill-health/checkup-backend/internal/occupancy"
	"github.com/oakhill-health/checkup-backend/internal/patients"
	"github.com/oakhill-health/checkup-backend/internal/recommend"
	"github.com/oakhill-health/checkup-backend/internal/stations"
	"github.com/oakhill-health/checkup-backend/internal/stats"
	"github.com/oakhill-health/checkup-backend/internal/tracking"
	"github.com/oakhill-health/checkup-backend/pkg/config"
	"github.com/oakhill-health/checkup-backend/pkg/db"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
	"github.com/oakhill-health/checkup-backend/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Stations  stations.Service
	Equipment equipment.Service
	Patients  patients.Service
	Tracking  tracking.Service
	Occupancy occupancy.Service
	Recommend recommend.Service
	Escort    escort.Service
	Stats     stats.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	cache redis.Pinger,
	gatherer prometheus.Gatherer,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Actor(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/stations", func(r chi.Router) {
			r.Get("/", controllers.StationList(svcs.Stations, logg))
			r.Get("/dependencies", controllers.StationDependencies(svcs.Stations, logg))
			r.Get("/{stationCode}", controllers.StationDetail(svcs.Stations, logg))
		})

		r.Route("/equipment", func(r chi.Router) {
			r.Get("/", controllers.EquipmentList(svcs.Equipment, logg))
			r.Get("/health", controllers.EquipmentHealthByStation(svcs.Equipment, logg))
			r.Get("/{equipmentId}/logs", controllers.EquipmentLogs(svcs.Equipment, logg))
			r.With(middleware.RequireActor(logg)).
				Post("/{equipmentId}/report", controllers.EquipmentReport(svcs.Equipment, logg))
		})

		r.Route("/patients", func(r chi.Router) {
			r.Get("/", controllers.PatientRoster(svcs.Patients, logg))
			r.Get("/lookup", controllers.PatientLookup(svcs.Patients, logg))
			r.Get("/{patientId}", controllers.PatientDetail(svcs.Patients, logg))
			r.Get("/{patientId}/recommendation", controllers.RecommendNext(svcs.Recommend, logg))
		})

		r.Route("/tracking", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActor(logg))
				r.Post("/arrival", controllers.TrackingArrival(svcs.Tracking, logg))
				r.Post("/start", controllers.TrackingStart(svcs.Tracking, logg))
				r.Post("/complete", controllers.TrackingComplete(svcs.Tracking, logg))
				r.Post("/assign", controllers.TrackingAssign(svcs.Tracking, logg))
			})
			r.Get("/{patientId}", controllers.TrackingState(svcs.Tracking, logg))
			r.Get("/{patientId}/history", controllers.TrackingHistory(svcs.Tracking, logg))
		})

		r.Route("/occupancy", func(r chi.Router) {
			r.Get("/", controllers.OccupancySnapshot(svcs.Occupancy, logg))
			r.Get("/queue/{patientId}", controllers.OccupancyQueuePosition(svcs.Occupancy, logg))
		})

		r.Route("/escorts", func(r chi.Router) {
			r.Get("/", controllers.EscortList(svcs.Escort, logg))
			r.With(middleware.RequireActor(logg)).
				Post("/", controllers.EscortAssign(svcs.Escort, logg))
			r.Get("/patients/{patientId}", controllers.EscortForPatient(svcs.Escort, logg))
			r.Get("/staff/{staffId}", controllers.EscortForStaff(svcs.Escort, logg))
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/daily", controllers.StatsDaily(svcs.Stats, logg))
			r.Get("/stations", controllers.StatsStations(svcs.Stats, logg))
			r.Get("/durations", controllers.StatsDurations(svcs.Stats, logg))
		})
	})

	return r
}
