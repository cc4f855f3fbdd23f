package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/api/middleware"
	"github.com/oakhill-health/checkup-backend/api/responses"
	"github.com/oakhill-health/checkup-backend/api/validators"
	"github.com/oakhill-health/checkup-backend/internal/equipment"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/logger"
	"github.com/oakhill-health/checkup-backend/pkg/pagination"
)

type equipmentReportRequest struct {
	Health string  `json:"health" validate:"required,oneof=normal warning broken"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// EquipmentList returns the active equipment roster.
func EquipmentList(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "equipment service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"equipment": list})
	}
}

// EquipmentHealthByStation returns the worst health per station code.
func EquipmentHealthByStation(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "equipment service unavailable"))
			return
		}

		health, err := svc.HealthByStation(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"health": health})
	}
}

// EquipmentReport records a health observation for one unit.
func EquipmentReport(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "equipment service unavailable"))
			return
		}

		equipmentID, err := uuid.Parse(chi.URLParam(r, "equipmentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid equipment id"))
			return
		}

		var req equipmentReportRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		health, err := enums.ParseEquipmentHealth(req.Health)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid health value"))
			return
		}

		unit, err := svc.Report(r.Context(), equipment.ReportInput{
			EquipmentID: equipmentID,
			Health:      health,
			Note:        req.Note,
			ActorID:     middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unit)
	}
}

// EquipmentLogs returns the report trail for one unit, newest first.
func EquipmentLogs(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "equipment service unavailable"))
			return
		}

		equipmentID, err := uuid.Parse(chi.URLParam(r, "equipmentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid equipment id"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Logs(r.Context(), equipmentID, pagination.Params{
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
