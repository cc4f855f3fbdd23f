package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oakhill-health/checkup-backend/api/routes"
	"github.com/oakhill-health/checkup-backend/internal/conflict"
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
	"github.com/oakhill-health/checkup-backend/pkg/events"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
	"github.com/oakhill-health/checkup-backend/pkg/metrics"
	"github.com/oakhill-health/checkup-backend/pkg/migrate"
	"github.com/oakhill-health/checkup-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// The cache is optional: without redis the occupancy snapshot recomputes
	// on every read.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, snapshot cache disabled")
	}

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)
	dispatcher := events.NewDispatcher(logg)

	stationsRepo := stations.NewRepository(dbClient.DB())
	equipmentRepo := equipment.NewRepository(dbClient.DB())
	patientsRepo := patients.NewRepository(dbClient.DB())
	trackingRepo := tracking.NewRepository(dbClient.DB())
	occupancyRepo := occupancy.NewRepository(dbClient.DB())
	escortRepo := escort.NewRepository(dbClient.DB())
	statsRepo := stats.NewRepository(dbClient.DB())

	stationsSvc, err := stations.NewService(stationsRepo)
	exitOnWiringError(logg, "stations service", err)

	equipmentSvc, err := equipment.NewService(equipmentRepo, dbClient, dispatcher)
	exitOnWiringError(logg, "equipment service", err)

	patientsSvc, err := patients.NewService(patientsRepo, trackingRepo)
	exitOnWiringError(logg, "patients service", err)

	var cache occupancy.SnapshotCache
	if redisClient != nil {
		cache = redisClient
	}
	occupancySvc, err := occupancy.NewService(occupancyRepo, stationsRepo, trackingRepo, cache, engineMetrics, cfg.Engine)
	exitOnWiringError(logg, "occupancy service", err)

	trackingSvc, err := tracking.NewService(
		trackingRepo,
		patientsRepo,
		stationsRepo,
		equipmentRepo,
		dbClient,
		conflict.NewDetector(cfg.Engine),
		dispatcher,
		engineMetrics,
		occupancySvc,
		logg,
	)
	exitOnWiringError(logg, "tracking service", err)

	recommendSvc, err := recommend.NewService(patientsRepo, stationsRepo, trackingRepo, equipmentSvc, cfg.Engine, nil)
	exitOnWiringError(logg, "recommend service", err)

	escortSvc, err := escort.NewService(escortRepo, patientsRepo, dbClient, dispatcher)
	exitOnWiringError(logg, "escort service", err)

	statsSvc, err := stats.NewService(statsRepo)
	exitOnWiringError(logg, "stats service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	var cachePinger redis.Pinger
	if redisClient != nil {
		cachePinger = redisClient
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, cachePinger, registry, routes.Services{
			Stations:  stationsSvc,
			Equipment: equipmentSvc,
			Patients:  patientsSvc,
			Tracking:  trackingSvc,
			Occupancy: occupancySvc,
			Recommend: recommendSvc,
			Escort:    escortSvc,
			Stats:     statsSvc,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func exitOnWiringError(logg *logger.Logger, component string, err error) {
	if err == nil {
		return
	}
	ctx := logg.WithField(context.Background(), "component", component)
	logg.Error(ctx, "failed to wire component", err)
	os.Exit(1)
}
