package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/api/responses"
	"github.com/oakhill-health/checkup-backend/api/validators"
	"github.com/oakhill-health/checkup-backend/internal/recommend"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
)

// RecommendNext ranks the patient's remaining stations and returns the best
// next destination.
func RecommendNext(svc recommend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "recommend service unavailable"))
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

		suggestion, err := svc.Suggest(r.Context(), recommend.SuggestInput{
			PatientID: patientID,
			ExamDate:  examDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, suggestion)
	}
}
