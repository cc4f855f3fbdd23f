package stations

import (
	"context"

	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
)

// Repository defines persistence operations for the station catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context) ([]models.Station, error)
	FindByCode(ctx context.Context, code string) (*models.Station, error)
	Create(ctx context.Context, station *models.Station) (*models.Station, error)
	Update(ctx context.Context, code string, updates map[string]any) error
}

// Service exposes catalog reads used by the engine and the API.
type Service interface {
	List(ctx context.Context) ([]models.Station, error)
	Get(ctx context.Context, code string) (*models.Station, error)
	DependencyGraph(ctx context.Context) (map[string][]string, error)
}
