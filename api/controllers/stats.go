package controllers

import (
	"net/http"

	"github.com/oakhill-health/checkup-backend/api/responses"
	"github.com/oakhill-health/checkup-backend/api/validators"
	"github.com/oakhill-health/checkup-backend/internal/stats"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
)

// StatsDaily returns the day's throughput counters and hourly buckets.
func StatsDaily(svc stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stats service unavailable"))
			return
		}

		examDate, err := validators.ExamDate(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		daily, err := svc.Daily(r.Context(), examDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, daily)
	}
}

// StatsStations returns per-station completions and average exam duration.
func StatsStations(svc stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stats service unavailable"))
			return
		}

		examDate, err := validators.ExamDate(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		performance, err := svc.StationPerformance(r.Context(), examDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"exam_date": examDate, "stations": performance})
	}
}

// StatsDurations returns average exam durations per station over a date
// range.
func StatsDurations(svc stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stats service unavailable"))
			return
		}

		fromDate, err := validators.RequiredQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		toDate, err := validators.RequiredQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		durations, err := svc.AvgDurations(r.Context(), fromDate, toDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"from": fromDate, "to": toDate, "durations": durations})
	}
}
