package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/api/middleware"
	"github.com/oakhill-health/checkup-backend/api/responses"
	"github.com/oakhill-health/checkup-backend/api/validators"
	"github.com/oakhill-health/checkup-backend/internal/escort"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
)

type escortAssignRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
	ExamDate  string `json:"exam_date" validate:"required,datetime=2006-01-02"`
	StaffID   string `json:"staff_id" validate:"required,max=64"`
}

// EscortAssign binds a staff member to a patient for the exam day.
func EscortAssign(svc escort.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escort service unavailable"))
			return
		}

		var req escortAssignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid patient id"))
			return
		}

		assignment, err := svc.Assign(r.Context(), escort.AssignInput{
			PatientID:  patientID,
			ExamDate:   req.ExamDate,
			StaffID:    req.StaffID,
			AssignedBy: middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

// EscortForPatient returns the patient's active escort for the day.
func EscortForPatient(svc escort.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escort service unavailable"))
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

		assignment, err := svc.ActiveForPatient(r.Context(), patientID, examDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

// EscortForStaff returns the staff member's active assignment for the day.
func EscortForStaff(svc escort.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escort service unavailable"))
			return
		}

		staffID := strings.TrimSpace(chi.URLParam(r, "staffId"))
		if staffID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "staff id required"))
			return
		}

		examDate, err := validators.ExamDate(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.ActiveForStaff(r.Context(), staffID, examDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

// EscortList returns every assignment recorded for the exam day, active and
// released.
func EscortList(svc escort.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escort service unavailable"))
			return
		}

		examDate, err := validators.ExamDate(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignments, err := svc.ListByDate(r.Context(), examDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"assignments": assignments})
	}
}
