package equipment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	"github.com/oakhill-health/checkup-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an equipment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActive(ctx context.Context) ([]models.EquipmentUnit, error) {
	var units []models.EquipmentUnit
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("station_code ASC, name ASC").
		Find(&units).Error
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (r *repository) ListByStation(ctx context.Context, stationCode string) ([]models.EquipmentUnit, error) {
	var units []models.EquipmentUnit
	err := r.db.WithContext(ctx).
		Where("station_code = ? AND active = ?", stationCode, true).
		Order("name ASC").
		Find(&units).Error
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.EquipmentUnit, error) {
	var unit models.EquipmentUnit
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) UpdateHealth(ctx context.Context, id uuid.UUID, health enums.EquipmentHealth) error {
	return r.db.WithContext(ctx).
		Model(&models.EquipmentUnit{}).
		Where("id = ?", id).
		Update("health", health).Error
}

func (r *repository) CreateLog(ctx context.Context, entry *models.EquipmentLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListLogs(ctx context.Context, equipmentID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.EquipmentLog, error) {
	query := r.db.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Order("created_at DESC, id DESC")

	// Keyset pagination on (created_at, id) descending.
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.EquipmentLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
