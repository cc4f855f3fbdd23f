package equipment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	"github.com/oakhill-health/checkup-backend/pkg/pagination"
)

// Repository defines persistence operations for equipment units and their
// append-only change log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context) ([]models.EquipmentUnit, error)
	ListByStation(ctx context.Context, stationCode string) ([]models.EquipmentUnit, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.EquipmentUnit, error)
	UpdateHealth(ctx context.Context, id uuid.UUID, health enums.EquipmentHealth) error
	CreateLog(ctx context.Context, entry *models.EquipmentLog) error
	ListLogs(ctx context.Context, equipmentID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.EquipmentLog, error)
}

// Service exposes the equipment feed: health reads for the engine and
// report/repair mutations from the floor.
type Service interface {
	List(ctx context.Context) ([]models.EquipmentUnit, error)
	HealthByStation(ctx context.Context) (map[string]enums.EquipmentHealth, error)
	Report(ctx context.Context, input ReportInput) (*models.EquipmentUnit, error)
	Logs(ctx context.Context, equipmentID uuid.UUID, params pagination.Params) (*LogPage, error)
}
