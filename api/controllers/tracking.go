package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/api/middleware"
	"github.com/oakhill-health/checkup-backend/api/responses"
	"github.com/oakhill-health/checkup-backend/api/validators"
	"github.com/oakhill-health/checkup-backend/internal/tracking"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
	"github.com/oakhill-health/checkup-backend/pkg/pagination"
)

type arrivalRequest struct {
	PatientID   string  `json:"patient_id" validate:"required,uuid"`
	ExamDate    string  `json:"exam_date" validate:"required,datetime=2006-01-02"`
	StationCode string  `json:"station_code" validate:"required,max=32"`
	Note        *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type startRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
	ExamDate  string `json:"exam_date" validate:"required,datetime=2006-01-02"`
}

type completeRequest struct {
	PatientID string  `json:"patient_id" validate:"required,uuid"`
	ExamDate  string  `json:"exam_date" validate:"required,datetime=2006-01-02"`
	Note      *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type assignRequest struct {
	PatientID   string `json:"patient_id" validate:"required,uuid"`
	ExamDate    string `json:"exam_date" validate:"required,datetime=2006-01-02"`
	StationCode string `json:"station_code" validate:"required,max=32"`
}

// TrackingArrival reports a patient arriving at a station.
func TrackingArrival(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		var req arrivalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid patient id"))
			return
		}

		result, err := svc.ReportArrival(r.Context(), tracking.ArrivalInput{
			PatientID:   patientID,
			ExamDate:    req.ExamDate,
			StationCode: req.StationCode,
			ActorID:     middleware.ActorIDFromContext(r.Context()),
			Note:        req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// TrackingStart reports an exam starting at the patient's current station.
func TrackingStart(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		var req startRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid patient id"))
			return
		}

		result, err := svc.ReportStart(r.Context(), tracking.StartInput{
			PatientID: patientID,
			ExamDate:  req.ExamDate,
			ActorID:   middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// TrackingComplete reports the current exam finishing.
func TrackingComplete(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		var req completeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid patient id"))
			return
		}

		result, err := svc.ReportComplete(r.Context(), tracking.CompleteInput{
			PatientID: patientID,
			ExamDate:  req.ExamDate,
			ActorID:   middleware.ActorIDFromContext(r.Context()),
			Note:      req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// TrackingAssign proposes the patient's next station, subject to conflict
// checks.
func TrackingAssign(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		var req assignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid patient id"))
			return
		}

		result, err := svc.AssignStation(r.Context(), tracking.AssignInput{
			PatientID:   patientID,
			ExamDate:    req.ExamDate,
			StationCode: req.StationCode,
			ActorID:     middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// TrackingState returns the patient's current tracking row for the day.
func TrackingState(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
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

		state, err := svc.State(r.Context(), patientID, examDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// TrackingHistory returns the day's append-only movement log for a patient.
func TrackingHistory(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
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

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.History(r.Context(), patientID, examDate, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
