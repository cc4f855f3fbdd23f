package stations

import (
	"context"

	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a station repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActive(ctx context.Context) ([]models.Station, error) {
	var stations []models.Station
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("code ASC").
		Find(&stations).Error
	if err != nil {
		return nil, err
	}
	return stations, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Station, error) {
	var station models.Station
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&station).Error
	if err != nil {
		return nil, err
	}
	return &station, nil
}

func (r *repository) Create(ctx context.Context, station *models.Station) (*models.Station, error) {
	if err := r.db.WithContext(ctx).Create(station).Error; err != nil {
		return nil, err
	}
	return station, nil
}

func (r *repository) Update(ctx context.Context, code string, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Station{}).
		Where("code = ?", code).
		Updates(updates).Error
}
