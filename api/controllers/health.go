package controllers

import (
	"net/http"

	"github.com/oakhill-health/checkup-backend/api/responses"
	"github.com/oakhill-health/checkup-backend/pkg/config"
	"github.com/oakhill-health/checkup-backend/pkg/db"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
	"github.com/oakhill-health/checkup-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Checkup-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the datasources. The cache is advisory: a dead redis
// degrades snapshot reads but never takes the engine down, so it reports
// per-dependency status instead of failing readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, cache redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Checkup-Env", cfg.App.Env)

		status := map[string]string{"status": "ready", "database": "ok", "cache": "ok"}

		if dbP == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "database not configured"))
			return
		}
		if err := dbP.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
			return
		}

		if cache == nil {
			status["cache"] = "disabled"
		} else if err := cache.Ping(r.Context()); err != nil {
			status["cache"] = "unreachable"
		}

		responses.WriteSuccess(w, status)
	}
}
