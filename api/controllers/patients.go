package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/api/responses"
	"github.com/oakhill-health/checkup-backend/api/validators"
	"github.com/oakhill-health/checkup-backend/internal/patients"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
)

// PatientRoster returns every patient booked for the exam day, merged with
// their live tracking status.
func PatientRoster(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "patients service unavailable"))
			return
		}

		examDate, err := validators.ExamDate(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roster, err := svc.Roster(r.Context(), examDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"exam_date": examDate, "roster": roster})
	}
}

// PatientDetail returns one patient by id, or by chart number via the
// chart_no query parameter.
func PatientDetail(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "patients service unavailable"))
			return
		}

		patientID, err := uuid.Parse(chi.URLParam(r, "patientId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid patient id"))
			return
		}

		patient, err := svc.Get(r.Context(), patientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, patient)
	}
}

// PatientLookup finds a patient by chart number.
func PatientLookup(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "patients service unavailable"))
			return
		}

		chartNo := strings.TrimSpace(r.URL.Query().Get("chart_no"))
		if chartNo == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "chart_no query parameter required"))
			return
		}

		patient, err := svc.GetByChartNo(r.Context(), chartNo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, patient)
	}
}
