package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/api/responses"
	"github.com/oakhill-health/checkup-backend/api/validators"
	"github.com/oakhill-health/checkup-backend/internal/occupancy"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
)

// OccupancySnapshot returns per-station load for the exam day.
func OccupancySnapshot(svc occupancy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "occupancy service unavailable"))
			return
		}

		examDate, err := validators.ExamDate(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.Snapshot(r.Context(), examDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// OccupancyQueuePosition returns a waiting patient's place in line.
func OccupancyQueuePosition(svc occupancy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "occupancy service unavailable"))
			return
		}

		patientID, err := uuid.Parse(chi.URLParam(r, "patientId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid patient id"))
			return
		}

		examDate, err := validators.ExamDate(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		position, err := svc.QueuePosition(r.Context(), patientID, examDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, position)
	}
}
