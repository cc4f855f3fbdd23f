package equipment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/events"
	"github.com/oakhill-health/checkup-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo   Repository
	tx     txRunner
	events events.Publisher
}

// NewService builds the equipment service with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher events.Publisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("equipment repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	return &service{repo: repo, tx: tx, events: publisher}, nil
}

func (s *service) List(ctx context.Context) ([]models.EquipmentUnit, error) {
	return s.repo.ListActive(ctx)
}

// HealthByStation reduces each station's units to its worst health. A station
// with no active equipment is absent from the map, which readers treat as
// normal.
func (s *service) HealthByStation(ctx context.Context) (map[string]enums.EquipmentHealth, error) {
	units, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list equipment")
	}

	worst := make(map[string]enums.EquipmentHealth, len(units))
	for _, unit := range units {
		current, ok := worst[unit.StationCode]
		if !ok || healthRank(unit.Health) > healthRank(current) {
			worst[unit.StationCode] = unit.Health
		}
	}
	return worst, nil
}

func (s *service) Report(ctx context.Context, input ReportInput) (*models.EquipmentUnit, error) {
	if input.EquipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "equipment id required")
	}
	if !input.Health.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid equipment health")
	}
	if input.ActorID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}

	var updated *models.EquipmentUnit
	var oldHealth enums.EquipmentHealth

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		unit, err := repo.FindByID(ctx, input.EquipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "equipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load equipment")
		}

		oldHealth = unit.Health
		if oldHealth == input.Health && input.Note == nil {
			updated = unit
			return nil
		}

		if err := repo.UpdateHealth(ctx, unit.ID, input.Health); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update equipment health")
		}

		entry := &models.EquipmentLog{
			ID:          uuid.New(),
			EquipmentID: unit.ID,
			Action:      "report",
			OldHealth:   oldHealth,
			NewHealth:   input.Health,
			Note:        input.Note,
			ActorID:     input.ActorID,
			CreatedAt:   time.Now().UTC(),
		}
		if err := repo.CreateLog(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append equipment log")
		}

		unit.Health = input.Health
		updated = unit
		return nil
	})
	if err != nil {
		return nil, err
	}

	if oldHealth != input.Health {
		_ = s.events.Emit(ctx, events.Event{
			Type:  enums.EventEquipmentReported,
			Actor: &events.ActorRef{ActorID: input.ActorID},
			Data: ReportedEvent{
				EquipmentID: updated.ID,
				StationCode: updated.StationCode,
				OldHealth:   oldHealth,
				NewHealth:   input.Health,
			},
		})
	}

	return updated, nil
}

func (s *service) Logs(ctx context.Context, equipmentID uuid.UUID, params pagination.Params) (*LogPage, error) {
	if equipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "equipment id required")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	entries, err := s.repo.ListLogs(ctx, equipmentID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list equipment logs")
	}

	page := &LogPage{Logs: entries}
	if len(entries) > limit {
		page.Logs = entries[:limit]
		last := page.Logs[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func healthRank(h enums.EquipmentHealth) int {
	switch h {
	case enums.EquipmentHealthBroken:
		return 2
	case enums.EquipmentHealthWarning:
		return 1
	default:
		return 0
	}
}
